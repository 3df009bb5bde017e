package transport

import (
	"errors"
	"net"
	"os"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/indigo-web/gateway/config"
	"github.com/stretchr/testify/require"
)

func bound(t *testing.T) *TCP {
	tcp := NewTCP()
	require.NoError(t, tcp.Bind("127.0.0.1:0"))
	t.Cleanup(func() {
		_ = tcp.Close()
	})

	return tcp
}

func netConfig(interrupt time.Duration) config.NET {
	cfg := config.Default().NET
	cfg.AcceptLoopInterruptPeriod = interrupt

	return cfg
}

func TestTCP(t *testing.T) {
	t.Run("endpoint", func(t *testing.T) {
		tcp := bound(t)
		endpoint := tcp.Endpoint()
		require.Equal(t, "127.0.0.1", endpoint.Host)
		require.NotZero(t, endpoint.Port)
		require.NotEmpty(t, endpoint.Name)
	})

	t.Run("accepted connections are dispatched", func(t *testing.T) {
		tcp := bound(t)
		conns := make(chan net.Conn, 3)
		errCh := make(chan error, 1)
		go func() {
			errCh <- tcp.Listen(netConfig(10*time.Millisecond), func(conn net.Conn) {
				conns <- conn
			})
		}()

		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(tcp.Endpoint().Port))
		for i := 0; i < 3; i++ {
			client, err := net.Dial("tcp", addr)
			require.NoError(t, err)
			_ = client.Close()
		}

		for i := 0; i < 3; i++ {
			conn := <-conns
			require.NoError(t, conn.Close())
		}

		tcp.Stop()
		require.NoError(t, <-errCh)
	})

	t.Run("stop interrupts the accept", func(t *testing.T) {
		tcp := bound(t)
		errCh := make(chan error, 1)
		go func() {
			errCh <- tcp.Listen(netConfig(10*time.Millisecond), func(conn net.Conn) {
				_ = conn.Close()
			})
		}()

		time.Sleep(50 * time.Millisecond)
		tcp.Stop()

		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(time.Second):
			require.Fail(t, "accept loop didn't stop")
		}
	})

	t.Run("stop and close", func(t *testing.T) {
		tcp := bound(t)
		errCh := make(chan error, 1)
		go func() {
			errCh <- tcp.Listen(netConfig(0), func(conn net.Conn) {
				_ = conn.Close()
			})
		}()

		time.Sleep(10 * time.Millisecond)
		tcp.Stop()
		require.NoError(t, tcp.Close())
		require.NoError(t, <-errCh)
	})

	t.Run("closed listener is fatal", func(t *testing.T) {
		tcp := bound(t)
		require.NoError(t, tcp.Close())
		err := tcp.Listen(netConfig(0), func(net.Conn) {})
		require.ErrorIs(t, err, net.ErrClosed)
	})

	t.Run("not bound", func(t *testing.T) {
		require.ErrorIs(t, NewTCP().Listen(netConfig(0), func(net.Conn) {}), ErrNotBound)
	})
}

func TestRetryable(t *testing.T) {
	interrupted := &net.OpError{Op: "accept", Net: "tcp", Err: os.NewSyscallError("accept", syscall.EINTR)}
	require.True(t, retryable(interrupted))
	timeout := &net.OpError{Op: "accept", Net: "tcp", Err: os.ErrDeadlineExceeded}
	require.True(t, retryable(timeout))
	require.False(t, retryable(&net.OpError{Op: "accept", Net: "tcp", Err: syscall.EMFILE}))
	require.False(t, retryable(errors.New("something else")))
}

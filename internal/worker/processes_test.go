//go:build linux || darwin || freebsd || netbsd || openbsd

package worker

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func serveProcesses(t *testing.T, log Logger) (*Processes, string) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	p, err := NewProcesses("localhost", 4242, log)
	require.NoError(t, err)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			if err = p.Dispatch(conn); err != nil {
				t.Error(err)
			}
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
	})

	return p, ln.Addr().String()
}

// request is safe to call from any goroutine; the caller asserts on the error.
func request(addr, path string) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err = fmt.Fprintf(conn, "GET %s HTTP/1.1\r\n\r\n", path); err != nil {
		return "", err
	}
	if err = conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return "", err
	}

	data, err := io.ReadAll(conn)
	return string(data), err
}

func TestProcesses(t *testing.T) {
	t.Run("reap without workers", func(t *testing.T) {
		p, err := NewProcesses("localhost", 0, nil)
		require.NoError(t, err)
		require.Zero(t, p.Reap())
		require.Zero(t, p.Reap())
		p.Wait()
	})

	log := new(recorder)
	p, addr := serveProcesses(t, log)

	t.Run("request is served by another process", func(t *testing.T) {
		response, err := request(addr, "/")
		require.NoError(t, err)
		body, found := strings.CutPrefix(response, "HTTP/1.1 200 OK\r\n\r\n")
		require.True(t, found, response)

		var pid, port, listening int
		_, err = fmt.Sscanf(body, "%d %d %d", &pid, &port, &listening)
		require.NoError(t, err)
		require.NotEqual(t, os.Getpid(), pid)
		require.Equal(t, 4242, port)
		require.Zero(t, listening, "worker inherited a listening socket")
	})

	t.Run("every connection gets its own worker", func(t *testing.T) {
		const clients = 10

		var (
			wg        sync.WaitGroup
			responses = make([]string, clients)
			errs      = make([]error, clients)
		)

		for i := 0; i < clients; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				responses[i], errs[i] = request(addr, "/")
			}()
		}

		wg.Wait()
		pids := map[string]struct{}{}
		for i := range responses {
			require.NoError(t, errs[i])
			pids[responses[i]] = struct{}{}
		}
		require.Len(t, pids, clients)
	})

	t.Run("crash is isolated", func(t *testing.T) {
		var (
			wg       sync.WaitGroup
			crashed  string
			crashErr error
		)

		wg.Add(1)
		go func() {
			defer wg.Done()
			crashed, crashErr = request(addr, "/crash")
		}()

		response, err := request(addr, "/")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(response, "HTTP/1.1 200 OK"))
		wg.Wait()
		require.NoError(t, crashErr)
		require.Empty(t, crashed)

		require.Eventually(t, func() bool {
			for _, line := range log.Lines() {
				if strings.Contains(line, "exit status 1") {
					return true
				}
			}

			return false
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("wait collects everything", func(t *testing.T) {
		p.Wait()
		require.Zero(t, p.Reap())
	})
}

package transport

import (
	"errors"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/indigo-web/gateway/config"
	"github.com/indigo-web/gateway/internal/address"
)

var ErrNotBound = errors.New("transport is not bound")

var _ Transport = (*TCP)(nil)

type TCP struct {
	l        *net.TCPListener
	endpoint Endpoint
	stop     *atomic.Bool
}

func NewTCP() *TCP {
	return &TCP{
		stop: new(atomic.Bool),
	}
}

func bindTCP(addr string) (*net.TCPListener, error) {
	tcpaddr, err := net.ResolveTCPAddr("tcp", address.Normalize(addr))
	if err != nil {
		return nil, err
	}

	return net.ListenTCP("tcp", tcpaddr)
}

func (t *TCP) Bind(addr string) (err error) {
	t.l, err = bindTCP(addr)
	if err != nil {
		return err
	}

	bound := t.l.Addr().(*net.TCPAddr)
	host := bound.IP.String()
	t.endpoint = Endpoint{
		Host: host,
		Port: bound.Port,
		Name: address.FQDN(host),
	}

	return nil
}

func (t *TCP) Endpoint() Endpoint {
	return t.endpoint
}

// Listen accepts connections until stopped, handing every one of them over to dispatch
// without waiting for it to be served. Interrupted accepts are retried, any other error
// is returned.
func (t *TCP) Listen(cfg config.NET, dispatch func(conn net.Conn)) error {
	if t.l == nil {
		return ErrNotBound
	}

	for !t.stop.Load() {
		if cfg.AcceptLoopInterruptPeriod > 0 {
			err := t.l.SetDeadline(time.Now().Add(cfg.AcceptLoopInterruptPeriod))
			if err != nil {
				return t.stopped(err)
			}
		}

		conn, err := t.l.Accept()
		if err != nil {
			if retryable(err) {
				continue
			}

			return t.stopped(err)
		}

		dispatch(conn)
	}

	return nil
}

// stopped swallows the error caused by closing the listener on purpose.
func (t *TCP) stopped(err error) error {
	if t.stop.Load() && errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}

// Stop makes the accept loop quit at the next iteration.
func (t *TCP) Stop() {
	t.stop.Store(true)
}

func (t *TCP) Close() error {
	if t.l == nil {
		return nil
	}

	return t.l.Close()
}

func retryable(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, syscall.EINTR)
}

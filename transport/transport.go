package transport

import (
	"net"
	"strconv"

	"github.com/indigo-web/gateway/config"
)

// Endpoint describes where the server is listening. It's fixed at bind time.
type Endpoint struct {
	// Host is the bound IP address.
	Host string
	// Port is the bound port. It's never zero, even if the server was asked to bind to
	// a random one.
	Port int
	// Name is the canonical name of the host, see address.FQDN.
	Name string
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Name, strconv.Itoa(e.Port))
}

// Transport owns the listening socket and runs the accept loop over it. Stop and Close
// may be called from any goroutine once Bind returned.
type Transport interface {
	Bind(addr string) error
	Endpoint() Endpoint
	Listen(cfg config.NET, dispatch func(conn net.Conn)) error
	Stop()
	Close() error
}

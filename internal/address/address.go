package address

import (
	"context"
	"net"
	"os"
	"strings"
	"time"
)

const DefaultAddr = "0.0.0.0"

// LookupTimeout bounds the reverse lookups FQDN does.
const LookupTimeout = 2 * time.Second

func Normalize(addr string) string {
	if len(stripPort(addr)) == 0 {
		// only port is presented
		return DefaultAddr + addr
	}

	return addr
}

// IsUnspecified reports whether the host means "all interfaces".
func IsUnspecified(host string) bool {
	if len(host) == 0 {
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsUnspecified()
}

// FQDN returns the fully qualified domain name for the host. An unspecified host stands
// for the machine itself. The first name containing a dot wins, otherwise the first name
// at all. When nothing can be resolved, the host is returned as is.
func FQDN(host string) string {
	if IsUnspecified(host) {
		hostname, err := os.Hostname()
		if err != nil {
			return host
		}

		host = hostname
	}

	ctx, cancel := context.WithTimeout(context.Background(), LookupTimeout)
	defer cancel()

	addrs := []string{host}
	if net.ParseIP(host) == nil {
		resolved, err := net.DefaultResolver.LookupHost(ctx, host)
		if err != nil {
			return host
		}

		addrs = resolved
	}

	var names []string
	for _, addr := range addrs {
		resolved, err := net.DefaultResolver.LookupAddr(ctx, addr)
		if err != nil {
			continue
		}

		names = append(names, resolved...)
	}

	return pick(host, names)
}

func pick(host string, names []string) string {
	for _, name := range names {
		name = strings.TrimSuffix(name, ".")
		if strings.Contains(name, ".") {
			return name
		}
	}

	if len(names) > 0 {
		return strings.TrimSuffix(names[0], ".")
	}

	return host
}

func stripPort(addr string) string {
	colon := strings.LastIndexByte(addr, ':')
	if colon != -1 {
		return addr[:colon]
	}

	return addr
}

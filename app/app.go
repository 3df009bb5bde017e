// Package app defines the contract between the gateway and an application, and the means
// to locate an application by its "module:callable" name.
package app

import (
	"iter"
	"slices"

	"github.com/indigo-web/gateway/environ"
)

type Header struct {
	Name, Value string
}

// StartResponse records the response status line (e.g. "200 OK") and headers. It must be
// called before the application returns its body. It writes nothing by itself.
type StartResponse func(status string, headers []Header)

// Application is invoked once per request. The returned sequence is consumed exactly
// once, after the application returned. Returning an error fails the request, and the
// connection gets closed without any response.
type Application func(env environ.Environ, start StartResponse) (iter.Seq[[]byte], error)

// Body is a convenience for returning a body already held in memory.
func Body(chunks ...[]byte) iter.Seq[[]byte] {
	return slices.Values(chunks)
}

// String returns a single-chunk body.
func String(body string) iter.Seq[[]byte] {
	return Body([]byte(body))
}

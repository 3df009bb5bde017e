// Package environ builds the gateway environment handed to an application: the request
// line decoded into CGI-style variables plus a fixed set of wsgi.* protocol metadata.
package environ

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/indigo-web/gateway/status"
	"github.com/indigo-web/utils/uf"
)

const (
	Version      = "wsgi.version"
	URLScheme    = "wsgi.url_scheme"
	Input        = "wsgi.input"
	Errors       = "wsgi.errors"
	Multithread  = "wsgi.multithread"
	Multiprocess = "wsgi.multiprocess"
	RunOnce      = "wsgi.run_once"

	RequestMethod  = "REQUEST_METHOD"
	PathInfo       = "PATH_INFO"
	ServerProtocol = "SERVER_PROTOCOL"
	ServerName     = "SERVER_NAME"
	ServerPort     = "SERVER_PORT"
	RemoteAddr     = "REMOTE_ADDR"
)

// Environ maps environment keys onto their values: strings for the CGI variables,
// [2]int for wsgi.version, io.Reader and io.Writer for the streams and bools for the
// concurrency flags.
type Environ map[string]any

// Method returns REQUEST_METHOD.
func (e Environ) Method() string {
	return e.str(RequestMethod)
}

// Path returns PATH_INFO, exactly as it was in the request line.
func (e Environ) Path() string {
	return e.str(PathInfo)
}

func (e Environ) Protocol() string {
	return e.str(ServerProtocol)
}

// Input returns the stream over the raw request bytes.
func (e Environ) Input() io.Reader {
	r, _ := e[Input].(io.Reader)
	return r
}

func (e Environ) str(key string) string {
	value, _ := e[key].(string)
	return value
}

// Builder carries everything the environment needs besides the request itself.
type Builder struct {
	ServerName   string
	ServerPort   int
	Multithread  bool
	Multiprocess bool
	// Errors is exposed as wsgi.errors. Defaults to os.Stderr
	Errors io.Writer
}

// Build is a shortcut for a Builder advertising a multiprocess, single-threaded server.
func Build(raw []byte, serverName string, serverPort int) (Environ, error) {
	b := Builder{
		ServerName:   serverName,
		ServerPort:   serverPort,
		Multithread:  false,
		Multiprocess: true,
	}

	return b.Build(raw)
}

// Build parses the request line out of raw and returns a fresh environment. Nothing
// past the request line is parsed, the whole raw input is available through wsgi.input.
func (b Builder) Build(raw []byte) (Environ, error) {
	method, path, protocol, err := requestLine(raw)
	if err != nil {
		return nil, err
	}

	errs := b.Errors
	if errs == nil {
		errs = os.Stderr
	}

	return Environ{
		Version:      [2]int{1, 0},
		URLScheme:    "http",
		Input:        bytes.NewReader(raw),
		Errors:       errs,
		Multithread:  b.Multithread,
		Multiprocess: b.Multiprocess,
		RunOnce:      false,

		RequestMethod:  method,
		PathInfo:       path,
		ServerProtocol: protocol,
		ServerName:     b.ServerName,
		ServerPort:     strconv.Itoa(b.ServerPort),
	}, nil
}

func requestLine(raw []byte) (method, path, protocol string, err error) {
	line := raw
	if eol := bytes.IndexAny(raw, "\r\n"); eol != -1 {
		line = raw[:eol]
	}

	if len(line) == 0 || !utf8.Valid(line) {
		return "", "", "", status.ErrMalformedRequestLine
	}

	// tokens are copied out, as the read buffer isn't guaranteed to outlive the request
	tokens := strings.Fields(strings.Clone(uf.B2S(line)))
	if len(tokens) != 3 {
		return "", "", "", status.ErrMalformedRequestLine
	}

	return tokens[0], tokens[1], tokens[2], nil
}

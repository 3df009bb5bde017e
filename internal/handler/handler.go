package handler

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/indigo-web/gateway/app"
	"github.com/indigo-web/gateway/config"
	"github.com/indigo-web/gateway/environ"
	"github.com/indigo-web/gateway/internal/serialize"
	"github.com/indigo-web/gateway/status"
)

// Handler serves exactly one request per connection: a single read, the application call
// and a single write. It is safe for concurrent use, as all the per-request state lives
// on the stack of Handle.
type Handler struct {
	cfg           *config.Config
	application   app.Application
	env           environ.Builder
	serverHeaders []app.Header
}

func New(cfg *config.Config, application app.Application, env environ.Builder) *Handler {
	return &Handler{
		cfg:         cfg,
		application: application,
		env:         env,
		serverHeaders: []app.Header{
			{Name: "Server", Value: cfg.Server.Software},
		},
	}
}

// result is what the application reports via StartResponse.
type result struct {
	status  string
	headers []app.Header
	started bool
}

// Handle serves the connection and closes it, whatever happens.
func (h *Handler) Handle(conn net.Conn) (err error) {
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}()

	raw, err := h.read(conn)
	if err != nil {
		return err
	}

	env, err := h.env.Build(raw)
	if err != nil {
		if h.cfg.Server.RespondMalformed {
			h.respondError(conn, status.BadRequest, err)
		}

		return err
	}

	if remote := conn.RemoteAddr(); remote != nil {
		env[environ.RemoteAddr] = remote.String()
	}

	serializer := serialize.New(make([]byte, 0, h.cfg.NET.ReadBufferSize), h.serverHeaders...)

	var res result
	body, err := h.application(env, func(status string, headers []app.Header) {
		res = result{
			status:  status,
			headers: serializer.WithServerHeaders(headers),
			started: true,
		}
	})
	if err != nil {
		return fmt.Errorf("application: %w", err)
	}

	if !res.started {
		return status.ErrStatusNotSet
	}

	return h.write(conn, serializer.Render(res.status, res.headers, body))
}

func (h *Handler) read(conn net.Conn) ([]byte, error) {
	if timeout := h.cfg.NET.ReadTimeout; timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}

	buff := make([]byte, h.cfg.NET.ReadBufferSize)
	n, err := conn.Read(buff)
	if n > 0 {
		return buff[:n], nil
	}

	switch err {
	case nil, io.EOF:
		return nil, status.ErrEmptyRequest
	default:
		return nil, err
	}
}

func (h *Handler) write(conn net.Conn, data []byte) error {
	if timeout := h.cfg.NET.WriteTimeout; timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}

	_, err := conn.Write(data)
	return err
}

// respondError is best-effort, the caller reports the reason anyway.
func (h *Handler) respondError(conn net.Conn, code status.Code, reason error) {
	serializer := serialize.New(nil, h.serverHeaders...)
	headers := []app.Header{
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "Connection", Value: "close"},
	}

	_ = h.write(conn, serializer.Serialize(status.Line(code), headers, app.String(reason.Error())))
}

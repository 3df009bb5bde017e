package serialize

import (
	"bufio"
	"bytes"
	"io"
	stdhttp "net/http"
	"testing"

	"github.com/indigo-web/gateway/app"
	"github.com/stretchr/testify/require"
)

func TestSerializer(t *testing.T) {
	server := app.Header{Name: "Server", Value: "gateway test"}

	t.Run("scenario", func(t *testing.T) {
		s := New(nil, server)
		data := s.Serialize("200 OK", []app.Header{{Name: "Content-Type", Value: "text/plain"}}, app.String("hi"))
		require.Equal(
			t,
			"HTTP/1.1 200 OK\r\nServer: gateway test\r\nContent-Type: text/plain\r\n\r\nhi",
			string(data),
		)
	})

	t.Run("headers order", func(t *testing.T) {
		s := New(make([]byte, 0, 64), server, app.Header{Name: "X-Powered-By", Value: "gateway"})
		headers := []app.Header{
			{Name: "Zebra", Value: "1"},
			{Name: "Alpha", Value: "2"},
			{Name: "Zebra", Value: "3"},
			{Name: "Server", Value: "application"},
		}
		data := s.Serialize("201 Created", headers, nil)
		require.Equal(t,
			"HTTP/1.1 201 Created\r\n"+
				"Server: gateway test\r\n"+
				"X-Powered-By: gateway\r\n"+
				"Zebra: 1\r\n"+
				"Alpha: 2\r\n"+
				"Zebra: 3\r\n"+
				"Server: application\r\n"+
				"\r\n",
			string(data),
		)
	})

	t.Run("body chunks order", func(t *testing.T) {
		s := New(nil, server)
		body := app.Body([]byte("Hello"), nil, []byte(", "), []byte("world"), []byte{})
		data := s.Serialize("200 OK", nil, body)

		req, err := stdhttp.NewRequest(stdhttp.MethodGet, "/", nil)
		require.NoError(t, err)
		resp, err := stdhttp.ReadResponse(bufio.NewReader(bytes.NewReader(data)), req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "gateway test", resp.Header.Get("Server"))
		got, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "Hello, world", string(got))
	})

	t.Run("body is consumed once", func(t *testing.T) {
		var pulls int
		body := func(yield func([]byte) bool) {
			pulls++
			for _, chunk := range []string{"a", "b", "c"} {
				if !yield([]byte(chunk)) {
					return
				}
			}
		}

		s := New(nil)
		data := s.Serialize("200 OK", nil, body)
		require.Equal(t, 1, pulls)
		require.Equal(t, "HTTP/1.1 200 OK\r\n\r\nabc", string(data))
	})

	t.Run("buffer reuse", func(t *testing.T) {
		s := New(nil, server)
		first := string(s.Serialize("200 OK", nil, app.String("first")))
		second := string(s.Serialize("404 Not Found", nil, app.String("2")))
		require.Equal(t, "HTTP/1.1 200 OK\r\nServer: gateway test\r\n\r\nfirst", first)
		require.Equal(t, "HTTP/1.1 404 Not Found\r\nServer: gateway test\r\n\r\n2", second)
	})

	t.Run("with server headers", func(t *testing.T) {
		s := New(nil, server)
		header := app.Header{Name: "A", Value: "b"}
		full := s.WithServerHeaders([]app.Header{header})
		require.Equal(t, []app.Header{server, header}, full)
		// the server headers themselves stay untouched
		require.Equal(t, []app.Header{server}, s.WithServerHeaders(nil))
		require.Equal(t,
			string(s.Serialize("200 OK", []app.Header{header}, app.String("x"))),
			string(s.Render("200 OK", full, app.String("x"))),
		)
	})
}

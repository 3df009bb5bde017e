package serialize

import (
	"iter"

	"github.com/indigo-web/gateway/app"
)

const (
	protocol = "HTTP/1.1 "
	crlf     = "\r\n"
)

// Serializer renders a complete response into a single buffer. The buffer is reused
// among calls, so the returned slice is valid only until the next call.
type Serializer struct {
	buff          []byte
	serverHeaders []app.Header
}

func New(buff []byte, serverHeaders ...app.Header) *Serializer {
	return &Serializer{
		buff:          buff[:0],
		serverHeaders: serverHeaders,
	}
}

// WithServerHeaders returns the full headers list, the way it goes onto the wire.
func (s *Serializer) WithServerHeaders(headers []app.Header) []app.Header {
	full := make([]app.Header, 0, len(s.serverHeaders)+len(headers))
	full = append(full, s.serverHeaders...)

	return append(full, headers...)
}

// Serialize renders status, server headers, headers and the whole body. The body is
// drained before Serialize returns.
func (s *Serializer) Serialize(status string, headers []app.Header, body iter.Seq[[]byte]) []byte {
	s.buff = s.buff[:0]
	s.appendStatus(status)
	s.appendHeaders(s.serverHeaders)
	s.appendHeaders(headers)
	s.crlf()
	s.appendBody(body)

	return s.buff
}

// Render is like Serialize, except headers are written exactly as passed. Used when the
// server headers were already merged in, see WithServerHeaders.
func (s *Serializer) Render(status string, headers []app.Header, body iter.Seq[[]byte]) []byte {
	s.buff = s.buff[:0]
	s.appendStatus(status)
	s.appendHeaders(headers)
	s.crlf()
	s.appendBody(body)

	return s.buff
}

func (s *Serializer) appendBody(body iter.Seq[[]byte]) {
	if body == nil {
		return
	}

	for chunk := range body {
		s.buff = append(s.buff, chunk...)
	}
}

func (s *Serializer) appendStatus(status string) {
	s.buff = append(s.buff, protocol...)
	s.buff = append(s.buff, status...)
	s.crlf()
}

func (s *Serializer) appendHeaders(headers []app.Header) {
	for _, header := range headers {
		s.buff = append(s.buff, header.Name...)
		s.buff = append(s.buff, ':', ' ')
		s.buff = append(s.buff, header.Value...)
		s.crlf()
	}
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}

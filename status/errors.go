package status

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrMalformedRequestLine = NewError(BadRequest, "malformed request line")
	ErrEmptyRequest         = NewError(BadRequest, "empty request")
	ErrStatusNotSet         = NewError(InternalServerError, "application did not start the response")
)

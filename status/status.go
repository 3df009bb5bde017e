package status

import "strconv"

type Code uint16

const (
	OK                  Code = 200
	BadRequest          Code = 400
	InternalServerError Code = 500
)

// Line returns a status line as the application is expected to pass it into
// StartResponse, e.g. "400 Bad Request".
func Line(code Code) string {
	text := Text(code)
	if len(text) == 0 {
		return strconv.Itoa(int(code))
	}

	return strconv.Itoa(int(code)) + " " + text
}

func Text(code Code) string {
	switch code {
	case OK:
		return "OK"
	case BadRequest:
		return "Bad Request"
	case InternalServerError:
		return "Internal Server Error"
	default:
		return ""
	}
}

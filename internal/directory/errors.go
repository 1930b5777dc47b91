package directory

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a ViewState after Close.
var ErrClosed = errors.New("view state closed")

// TransportError reports that the directory could not be reached at all:
// connection failures, timeouts, unreadable response bodies.
type TransportError struct {
	Op  string // e.g. "GET https://restcountries.com/v2/all"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError reports a non-success HTTP status from the directory.
type ServerError struct {
	StatusCode int
	Status     string
	Body       string // truncated response body, for diagnostics
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error: status %d (%s)", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("server error: status %d (%s): %s", e.StatusCode, e.Status, e.Body)
}

// DecodeError reports a malformed response or a record missing a required field.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorKind names the taxonomy class of err for logging.
// Errors outside the taxonomy are reported as "unknown".
func ErrorKind(err error) string {
	var (
		transport *TransportError
		server    *ServerError
		decode    *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &server):
		return "server"
	case errors.As(err, &decode):
		return "decode"
	case errors.As(err, &transport):
		return "transport"
	default:
		return "unknown"
	}
}

// logArgs returns slog-style key/value pairs describing err.
func logArgs(err error) []any {
	args := []any{"kind", ErrorKind(err), "error", err.Error()}
	var server *ServerError
	if errors.As(err, &server) {
		args = append(args, "status_code", server.StatusCode, "status", server.Status)
	}
	return args
}

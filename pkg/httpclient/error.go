package httpclient

import (
	"errors"
	"strings"
)

// ErrorName is the fixed name carried by every StatusError.
const ErrorName = "custom_error"

var (
	// ErrNoResponse is wrapped by the StatusError returned when the transport produced no response.
	ErrNoResponse = errors.New("no response from server")
	// ErrParsingRequest is handed to the request callback when a request cannot be described for logging.
	ErrParsingRequest = errors.New("error parsing request")
)

// StatusError carries an HTTP status together with one or more human readable messages.
type StatusError struct {
	Name    string   `json:"name"`
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Err     error    `json:"-"`
}

// NewStatusError builds a StatusError. Several messages are joined with ", " for display.
func NewStatusError(status int, messages ...string) *StatusError {
	e := &StatusError{Name: ErrorName, Status: status}
	switch len(messages) {
	case 0:
		e.Errors = []string{""}
	case 1:
		e.Message = messages[0]
		e.Errors = []string{messages[0]}
	default:
		e.Message = strings.Join(messages, ", ")
		e.Errors = append([]string(nil), messages...)
	}
	return e
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// noResponseError reports a call that never produced a response.
func noResponseError(cause error) *StatusError {
	e := NewStatusError(404, "No response from server")
	if cause != nil {
		e.Err = errors.Join(ErrNoResponse, cause)
	} else {
		e.Err = ErrNoResponse
	}
	return e
}

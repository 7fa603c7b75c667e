package library

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized is returned when the API answers 401 or 403. The
	// current session is invalidated when it is seen.
	ErrUnauthorized = errors.New("not authorized")

	// ErrRejected is returned when a write call answers with an explicit false.
	ErrRejected = errors.New("request rejected by server")

	// ErrNoSession is returned by operations that need a logged-in admin.
	ErrNoSession = errors.New("not logged in")

	// ErrInvalidCredentials is returned when the login endpoint answers false.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// TransportError is the single failure kind of the API client: the
// request could not be sent, or the server answered with a non-2xx status.
type TransportError struct {
	Op         string
	StatusCode int
	// Message is the optional "message" field of an error body.
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	msg := e.Op
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err was produced by the API client.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

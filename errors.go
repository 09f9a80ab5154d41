package teahaz

import (
	"errors"
	"fmt"
)

// The error returned when a message operation has no explicit channel and no
// active channel to fall back on.
var ErrMissingChannel = errors.New("no channel given and no active channel set")

// The error returned when a channel-dependent operation runs before a
// successful login or creation.
var ErrNotLoggedIn = errors.New("not logged in")

// The error returned when an explicitly activated channel is not part of the
// chatroom's channel list.
var ErrUnknownChannel = errors.New("channel not in chatroom")

// ConfigError is a fatal misconfiguration of the client: an unknown request
// method, endpoint name or setter key. It is never routed through event
// handlers.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string {
	return "config: " + e.Reason
}

// RequestFailedError is returned when the service answers with a non-200
// status and no error handler is subscribed to intercept it.
type RequestFailedError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string

	// RequestID correlates the failure with the client's log lines.
	RequestID string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("%s %s failed: %d -> %s", e.Method, e.URL, e.StatusCode, e.Body)
}

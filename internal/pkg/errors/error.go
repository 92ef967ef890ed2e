package xerrors

import "errors"

// Common reusable application errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal server error")
	ErrRateLimited    = errors.New("too many requests")
	ErrSessionExpired = errors.New("session expired or invalid")
	ErrInvalidRole    = errors.New("invalid role")
	ErrNotConnected   = errors.New("notification channel not connected")
	ErrUnreachable    = errors.New("server unreachable")
	ErrNotRestored    = errors.New("session not restored yet")
	ErrNoRoute        = errors.New("screen not reachable from current graph")
)

// DisplayError carries a message meant to be shown to the user as-is,
// while keeping the underlying cause for errors.Is / logging.
type DisplayError struct {
	Message string
	Err     error
}

func (e *DisplayError) Error() string {
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Err
}

// Display wraps err with a user-facing message.
func Display(message string, err error) error {
	return &DisplayError{Message: message, Err: err}
}

// DisplayMessage returns the user-facing message for err. Errors without a
// DisplayError in their chain fall back to err.Error().
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DisplayError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

package manager

import "errors"

var (
	// ErrIdleShutdown is returned by Run when the watchdog found no
	// connected session and stopped the relay.
	ErrIdleShutdown = errors.New("manager: idle watchdog stopped the relay")
	// ErrClosed is returned when work is submitted after Run has exited.
	ErrClosed = errors.New("manager: closed")
	// ErrAlreadyRunning is returned by a second concurrent Run call.
	ErrAlreadyRunning = errors.New("manager: already running")
)

// unknownActionError signals an action name outside Actions.
type unknownActionError struct{ name string }

func (e unknownActionError) Error() string { return "unknown action: " + e.name }

// IsUnknownAction reports whether err indicates an unrecognized action name.
func IsUnknownAction(err error) bool {
	var u unknownActionError
	return errors.As(err, &u)
}

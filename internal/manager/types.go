package manager

import (
	"fmt"
	"strings"
	"time"

	"wearrelay/internal/connection"
)

// SessionState is the coarse lifecycle of the drone client session.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateStarting
	StateStarted
	StateInterrupted
	StateDestroyed
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateInterrupted:
		return "interrupted"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Command is a unit of deferred work for the drone client. The set of
// variants is closed: ConnectCommand and DisconnectCommand.
type Command interface {
	Kind() string
	isCommand()
}

// ConnectCommand carries parameters captured when the request arrived.
type ConnectCommand struct {
	Params connection.Parameters
}

func (ConnectCommand) Kind() string { return "connect" }
func (ConnectCommand) isCommand()   {}

type DisconnectCommand struct{}

func (DisconnectCommand) Kind() string { return "disconnect" }
func (DisconnectCommand) isCommand()   {}

// Action is an inbound request from a companion or the control API.
type Action string

const (
	ActionShowStatus Action = "show-status"
	ActionConnect    Action = "connect"
	ActionDisconnect Action = "disconnect"
)

// Actions lists the accepted action names.
var Actions = []Action{ActionShowStatus, ActionConnect, ActionDisconnect}

// ParseAction maps an action name to an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", unknownActionError{name: s}
}

// Snapshot is a read-only projection of the loop-owned state.
type Snapshot struct {
	State            SessionState
	Connected        bool
	Pending          []string
	WatchdogDeadline time.Time
	LastEvent        string
	LastEventAt      time.Time
}

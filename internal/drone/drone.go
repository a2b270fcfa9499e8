// Package drone defines the contract between the relay and a drone client:
// the client capability set, the attribute model and the callback
// interfaces through which the client reports lifecycle and vehicle events.
package drone

import (
	"encoding"

	"wearrelay/internal/connection"
)

// AttributeType selects a vehicle attribute.
type AttributeType string

const (
	AttributeState    AttributeType = "state"
	AttributeBattery  AttributeType = "battery"
	AttributePosition AttributeType = "position"
)

// Attribute is a vehicle attribute value. Its binary encoding is owned by
// the client implementation and is opaque to the relay.
type Attribute interface {
	encoding.BinaryMarshaler
}

// Vehicle event names emitted through Listener.OnDroneEvent.
const (
	EventConnected        = "connected"
	EventDisconnected     = "disconnected"
	EventHeartbeatFirst   = "heartbeat_first"
	EventHeartbeatTimeout = "heartbeat_timeout"
	EventHeartbeatRestore = "heartbeat_restored"
	EventStateUpdated     = "state_updated"
	EventArming           = "state_arming"
	EventModeUpdated      = "mode_updated"
	EventBattery          = "battery_updated"
	EventPosition         = "gps_position"
)

// ServiceListener receives binding callbacks. OnServiceConnected is
// delivered once the client runtime is ready to be started.
type ServiceListener interface {
	OnServiceConnected()
	OnServiceInterrupted()
}

// Listener receives vehicle events and session failures.
type Listener interface {
	OnDroneEvent(event string, extras map[string]any)
	OnDroneConnectionFailed(reason string)
	OnDroneServiceInterrupted(reason string)
}

// Client is the capability set the relay needs from a drone client.
// Callbacks may arrive on any goroutine.
type Client interface {
	Bind(l ServiceListener)
	RegisterListener(l Listener)
	Start()
	Destroy()
	Connect(p connection.Parameters) error
	Disconnect() error
	IsStarted() bool
	IsConnected() bool
	Attribute(t AttributeType) (Attribute, bool)
}

package types

// Message paths shared by the relay and its companions.
const (
	// PathActionPrefix prefixes companion-originated actions, e.g. /action/connect.
	// Status replies travel back on the same path.
	PathActionPrefix = "/action/"
	// PathEventPrefix prefixes forwarded vehicle events, e.g. /event/heartbeat_first.
	PathEventPrefix = "/event/"
	// PathSetupBluetoothDevices carries the paired device list when the relay
	// needs the user to pick a Bluetooth telemetry radio.
	PathSetupBluetoothDevices = "/setup/bluetooth-devices"
	// PathSetupBluetoothSelect carries the chosen device address back.
	PathSetupBluetoothSelect = "/setup/bluetooth-select"
)

// ActionPath returns the message path for an action name.
func ActionPath(action string) string { return PathActionPrefix + action }

// EventPath returns the message path for a vehicle event name.
func EventPath(event string) string { return PathEventPrefix + event }

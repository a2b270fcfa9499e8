package types

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Coarse lifecycle of the drone client session.
	// example: started
	State string `json:"state" example:"started"`
	// True when the drone client reports an active vehicle link.
	// example: true
	Connected bool `json:"connected" example:"true"`
	// Number of commands waiting for the session to start.
	// example: 0
	PendingActions int `json:"pending_actions" example:"0"`
	// Kinds of the queued commands, oldest first.
	// example: ["connect"]
	Pending []string `json:"pending,omitempty" example:"[\"connect\"]"`
	// Idle timeout applied by the watchdog, in seconds.
	// example: 30
	WatchdogTimeoutSeconds int `json:"watchdog_timeout_seconds" example:"30"`
	// Next watchdog check (unix seconds); zero when no command was observed yet.
	// example: 1700000030
	WatchdogDeadline int64 `json:"watchdog_deadline_unix,omitempty" example:"1700000030"`
	// Name of the last vehicle event forwarded to companions.
	// example: heartbeat_first
	LastEvent string `json:"last_event,omitempty" example:"heartbeat_first"`
	// Time the last vehicle event was forwarded (unix seconds).
	// example: 1700000010
	LastEventAt int64 `json:"last_event_unix,omitempty" example:"1700000010"`
	// Number of companion devices attached to the relay.
	// example: 1
	Companions int `json:"companions" example:"1"`
	// Relay process start time (unix seconds).
	// example: 1700000000
	StartedAt int64 `json:"started_at_unix" example:"1700000000"`
}

// ActionResponse acknowledges an accepted action.
type ActionResponse struct {
	// Action that was accepted.
	// example: connect
	Action string `json:"action" example:"connect"`
	// Always true on 202 responses.
	// example: true
	Accepted bool `json:"accepted" example:"true"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unknown action: takeoff
	Error string `json:"error" example:"unknown action: takeoff"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SelectDeviceRequest is the body of POST /bluetooth/select.
type SelectDeviceRequest struct {
	// Bluetooth MAC address of the telemetry radio.
	// example: 00:11:22:33:44:55
	Address string `json:"address" example:"00:11:22:33:44:55"`
}

// PreferenceValue is the body of PUT /prefs/{key} and an item of GET /prefs.
type PreferenceValue struct {
	// example: pref_connection_type
	Key string `json:"key" example:"pref_connection_type"`
	// example: tcp
	Value string `json:"value" example:"tcp"`
}

// PreferencesResponse wraps GET /prefs.
type PreferencesResponse struct {
	Preferences []PreferenceValue `json:"preferences"`
}

// DevicesResponse wraps GET /bluetooth/devices.
type DevicesResponse struct {
	Devices []BluetoothDevice `json:"devices"`
}

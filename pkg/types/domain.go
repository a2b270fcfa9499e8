package types

// WireMessage is the envelope exchanged with companion devices over the
// relay WebSocket. Data is base64 encoded by encoding/json.
type WireMessage struct {
	// Message path; actions, vehicle events and setup flows use fixed prefixes.
	// example: /event/heartbeat_first
	Path string `json:"path" example:"/event/heartbeat_first"`
	// Opaque payload, omitted for pure signals.
	Data []byte `json:"data,omitempty"`
}

// BluetoothDevice is a paired device known to the host Bluetooth stack.
type BluetoothDevice struct {
	// example: 00:11:22:33:44:55
	Address string `json:"address" example:"00:11:22:33:44:55"`
	// example: HC-06
	Name string `json:"name,omitempty" example:"HC-06"`
	// example: true
	Paired bool `json:"paired" example:"true"`
	// example: false
	Connected bool `json:"connected" example:"false"`
}

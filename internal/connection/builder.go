package connection

import (
	"errors"

	"github.com/rs/zerolog"
)

// Source is the read-only view of stored preferences needed to build
// Parameters. Reads are expected to be cheap and synchronous.
type Source interface {
	ConnectionType() string
	USBBaudRate() int
	UDPServerPort() int
	TCPServerIP() string
	TCPServerPort() int
	BluetoothAddress() string
	StreamRates() StreamRates
	RemoteLogging() DroneShare
}

// Prompter starts the user-facing flow that completes a missing setting,
// e.g. picking a paired Bluetooth radio. It must not block.
type Prompter interface {
	RequestDeviceSelection(kind Kind)
}

// Builder turns the current preference values into Parameters.
type Builder struct {
	Prefs    Source
	Prompter Prompter
	Log      zerolog.Logger
}

// Build reads preferences and returns the parameters for the stored kind,
// or ok=false when they cannot be constructed. Callers must not connect
// when ok is false.
func (b Builder) Build() (Parameters, bool) {
	if b.Prefs == nil {
		b.Log.Error().Msg("connection: no preference store")
		return Parameters{}, false
	}
	raw := b.Prefs.ConnectionType()
	kind, err := ParseKind(raw)
	if err != nil {
		b.Log.Error().Err(err).Str("type", raw).Msg("Unrecognized connection type")
		return Parameters{}, false
	}

	rates := b.Prefs.StreamRates()
	var rl *DroneShare
	if ds := b.Prefs.RemoteLogging(); ds.Login != "" {
		rl = &ds
	}

	switch kind {
	case KindUSB:
		return NewUSB(b.Prefs.USBBaudRate(), rates, rl), true
	case KindUDP:
		return NewUDP(b.Prefs.UDPServerPort(), rates, rl), true
	case KindTCP:
		p, err := NewTCP(b.Prefs.TCPServerIP(), b.Prefs.TCPServerPort(), rates, rl)
		if err != nil {
			b.Log.Error().Err(err).Msg("tcp connection is not configured")
			return Parameters{}, false
		}
		return p, true
	case KindBluetooth:
		p, err := NewBluetooth(b.Prefs.BluetoothAddress(), rates, rl)
		if errors.Is(err, ErrMissingAddress) {
			b.Log.Info().Msg("no bluetooth device selected; requesting device selection")
			if b.Prompter != nil {
				b.Prompter.RequestDeviceSelection(KindBluetooth)
			}
			return Parameters{}, false
		}
		return p, true
	}
	return Parameters{}, false
}

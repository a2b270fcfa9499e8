package bluez

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"wearrelay/internal/connection"
	"wearrelay/pkg/types"
)

const defaultListTimeout = 5 * time.Second

// Lister returns the devices a user may pick from.
type Lister interface {
	PairedDevices(ctx context.Context) ([]types.BluetoothDevice, error)
}

// Sender delivers a message to companions without blocking.
type Sender interface {
	SendAsync(path string, payload []byte) bool
}

// Prompter asks companions to pick a telemetry radio by sending them the
// paired device list. The reply arrives on types.PathSetupBluetoothSelect.
type Prompter struct {
	Devices Lister
	Sender  Sender
	Log     zerolog.Logger
	Timeout time.Duration
}

var _ connection.Prompter = (*Prompter)(nil)

// RequestDeviceSelection returns immediately; listing and sending happen
// on a separate goroutine.
func (p *Prompter) RequestDeviceSelection(kind connection.Kind) {
	if kind != connection.KindBluetooth {
		return
	}
	go p.prompt()
}

func (p *Prompter) prompt() {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultListTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	devices := []types.BluetoothDevice{}
	if p.Devices != nil {
		list, err := p.Devices.PairedDevices(ctx)
		if err != nil {
			p.Log.Warn().Err(err).Msg("list paired bluetooth devices")
		} else if list != nil {
			devices = list
		}
	}
	b, err := json.Marshal(types.DevicesResponse{Devices: devices})
	if err != nil {
		p.Log.Error().Err(err).Msg("encode device list")
		return
	}
	if p.Sender == nil || !p.Sender.SendAsync(types.PathSetupBluetoothDevices, b) {
		p.Log.Warn().Int("devices", len(devices)).Msg("no companion to select a bluetooth device")
		return
	}
	p.Log.Info().Int("devices", len(devices)).Msg("bluetooth device selection requested")
}

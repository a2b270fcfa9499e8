package bluez

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotPaired = errors.New("bluetooth device is not paired")

// DeviceResolver maps a radio address to its RFCOMM serial node.
type DeviceResolver interface {
	RFCOMMDevice(address string) (string, error)
}

// PairedCheck refuses addresses BlueZ does not report as paired before
// handing the lookup to Next.
type PairedCheck struct {
	Devices Lister
	Next    DeviceResolver
	Timeout time.Duration
}

func (p PairedCheck) RFCOMMDevice(address string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultListTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	devs, err := p.Devices.PairedDevices(ctx)
	if err != nil {
		return "", fmt.Errorf("check pairing of %s: %w", address, err)
	}
	for _, d := range devs {
		if strings.EqualFold(d.Address, strings.TrimSpace(address)) {
			return p.Next.RFCOMMDevice(address)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotPaired, address)
}

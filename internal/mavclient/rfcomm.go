package mavclient

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoRFCOMMBinding = errors.New("mavclient: no RFCOMM binding for address")

// RFCOMMResolver finds the serial node bound to a Bluetooth radio.
type RFCOMMResolver interface {
	RFCOMMDevice(address string) (string, error)
}

// Bindings is a static address to device map, usually from configuration.
// Address keys are matched case-insensitively.
type Bindings map[string]string

func (b Bindings) RFCOMMDevice(address string) (string, error) {
	want := normalizeAddress(address)
	for addr, dev := range b {
		if normalizeAddress(addr) == want && dev != "" {
			return dev, nil
		}
	}
	return "", fmt.Errorf("%w %s", ErrNoRFCOMMBinding, want)
}

func normalizeAddress(a string) string {
	return strings.ToUpper(strings.TrimSpace(a))
}

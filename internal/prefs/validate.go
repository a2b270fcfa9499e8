package prefs

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"wearrelay/internal/connection"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindBool
	kindPort
	kindConnType
	kindMAC
)

var knownKeys = map[string]keyKind{
	KeyConnectionType:   kindConnType,
	KeyUSBBaudRate:      kindInt,
	KeyUDPServerPort:    kindPort,
	KeyTCPServerIP:      kindString,
	KeyTCPServerPort:    kindPort,
	KeyBluetoothAddress: kindMAC,

	KeyRateExtendedStatus: kindInt,
	KeyRateExtra1:         kindInt,
	KeyRateExtra2:         kindInt,
	KeyRateExtra3:         kindInt,
	KeyRatePosition:       kindInt,
	KeyRateRCChannels:     kindInt,
	KeyRateRawSensors:     kindInt,
	KeyRateRawController:  kindInt,

	KeyDroneShareLogin:    kindString,
	KeyDroneSharePassword: kindString,
	KeyDroneShareEnabled:  kindBool,
	KeyLiveUploadEnabled:  kindBool,
}

// Keys returns every known preference key in lexical order.
func Keys() []string {
	vals := make(map[string]string, len(knownKeys))
	for k := range knownKeys {
		vals[k] = ""
	}
	return SortedKeys(vals)
}

// IsSecret reports whether key holds a credential that must not be echoed.
func IsSecret(key string) bool { return key == KeyDroneSharePassword }

// Validate checks value against the type of key. Unknown keys are rejected.
func Validate(key, value string) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("unknown preference %q", key)
	}
	v := strings.TrimSpace(value)
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer", key)
		}
	case kindPort:
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("%s must be a port number", key)
		}
	case kindBool:
		if _, err := strconv.ParseBool(v); err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
	case kindConnType:
		if _, err := connection.ParseKind(v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	case kindMAC:
		if v == "" {
			return nil
		}
		if _, err := net.ParseMAC(v); err != nil {
			return fmt.Errorf("%s must be a bluetooth MAC address", key)
		}
	}
	return nil
}

// ErrInvalidAddress is returned by SelectBluetoothDevice for a malformed MAC.
var ErrInvalidAddress = errors.New("address must be a bluetooth MAC address")

// SelectBluetoothDevice stores address, normalized to upper case, as the
// telemetry radio used by Bluetooth connections. The connection type is left
// unchanged.
func SelectBluetoothDevice(s Store, address string) (string, error) {
	addr := strings.TrimSpace(address)
	if _, err := net.ParseMAC(addr); err != nil {
		return "", ErrInvalidAddress
	}
	addr = strings.ToUpper(addr)
	if err := s.Set(KeyBluetoothAddress, addr); err != nil {
		return "", err
	}
	return addr, nil
}

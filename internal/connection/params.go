// Package connection describes how to reach the vehicle: a tagged set of
// parameters per link kind, built fresh from stored preferences.
package connection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the physical/logical link used to reach the vehicle.
type Kind int

const (
	KindUSB Kind = iota
	KindUDP
	KindTCP
	KindBluetooth
)

func (k Kind) String() string {
	switch k {
	case KindUSB:
		return "usb"
	case KindUDP:
		return "udp"
	case KindTCP:
		return "tcp"
	case KindBluetooth:
		return "bluetooth"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseKind accepts either the numeric code or the lowercase name.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		k := Kind(n)
		if k < KindUSB || k > KindBluetooth {
			return 0, fmt.Errorf("unrecognized connection type: %d", n)
		}
		return k, nil
	}
	switch s {
	case "usb":
		return KindUSB, nil
	case "udp":
		return KindUDP, nil
	case "tcp":
		return KindTCP, nil
	case "bluetooth", "bt":
		return KindBluetooth, nil
	}
	return 0, fmt.Errorf("unrecognized connection type: %q", s)
}

var (
	// ErrMissingAddress is returned when a Bluetooth link has no device address.
	ErrMissingAddress = errors.New("connection: bluetooth device address is empty")
	// ErrMissingHost is returned when a TCP link has no server address.
	ErrMissingHost = errors.New("connection: tcp server ip is empty")
)

// StreamRates are the requested telemetry stream rates in Hz.
type StreamRates struct {
	ExtendedStatus int `json:"extended_status"`
	Extra1         int `json:"extra1"`
	Extra2         int `json:"extra2"`
	Extra3         int `json:"extra3"`
	Position       int `json:"position"`
	RCChannels     int `json:"rc_channels"`
	RawSensors     int `json:"raw_sensors"`
	RawController  int `json:"raw_controller"`
}

// DroneShare holds optional remote-logging credentials.
type DroneShare struct {
	Login      string `json:"login"`
	Password   string `json:"-"`
	Enabled    bool   `json:"enabled"`
	LiveUpload bool   `json:"live_upload"`
}

type USB struct {
	BaudRate int `json:"baud_rate"`
}

type UDP struct {
	ServerPort int `json:"server_port"`
}

type TCP struct {
	ServerIP   string `json:"server_ip"`
	ServerPort int    `json:"server_port"`
}

type Bluetooth struct {
	Address string `json:"address"`
}

// Parameters is a tagged variant: Kind names the single populated link field.
// Values are immutable once built; use the New* constructors.
type Parameters struct {
	Kind          Kind        `json:"kind"`
	USB           *USB        `json:"usb,omitempty"`
	UDP           *UDP        `json:"udp,omitempty"`
	TCP           *TCP        `json:"tcp,omitempty"`
	Bluetooth     *Bluetooth  `json:"bluetooth,omitempty"`
	Rates         StreamRates `json:"rates"`
	RemoteLogging *DroneShare `json:"remote_logging,omitempty"`
}

func NewUSB(baudRate int, rates StreamRates, rl *DroneShare) Parameters {
	return Parameters{Kind: KindUSB, USB: &USB{BaudRate: baudRate}, Rates: rates, RemoteLogging: rl}
}

func NewUDP(serverPort int, rates StreamRates, rl *DroneShare) Parameters {
	return Parameters{Kind: KindUDP, UDP: &UDP{ServerPort: serverPort}, Rates: rates, RemoteLogging: rl}
}

func NewTCP(serverIP string, serverPort int, rates StreamRates, rl *DroneShare) (Parameters, error) {
	if strings.TrimSpace(serverIP) == "" {
		return Parameters{}, ErrMissingHost
	}
	return Parameters{Kind: KindTCP, TCP: &TCP{ServerIP: serverIP, ServerPort: serverPort}, Rates: rates, RemoteLogging: rl}, nil
}

func NewBluetooth(address string, rates StreamRates, rl *DroneShare) (Parameters, error) {
	if strings.TrimSpace(address) == "" {
		return Parameters{}, ErrMissingAddress
	}
	return Parameters{Kind: KindBluetooth, Bluetooth: &Bluetooth{Address: address}, Rates: rates, RemoteLogging: rl}, nil
}

// Validate reports whether exactly the field matching Kind is populated.
func (p Parameters) Validate() error {
	set := 0
	for _, populated := range []bool{p.USB != nil, p.UDP != nil, p.TCP != nil, p.Bluetooth != nil} {
		if populated {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("connection: %d link fields populated, want 1", set)
	}
	ok := false
	switch p.Kind {
	case KindUSB:
		ok = p.USB != nil
	case KindUDP:
		ok = p.UDP != nil
	case KindTCP:
		ok = p.TCP != nil
	case KindBluetooth:
		ok = p.Bluetooth != nil && p.Bluetooth.Address != ""
	}
	if !ok {
		return fmt.Errorf("connection: fields do not match kind %s", p.Kind)
	}
	return nil
}

func (p Parameters) String() string {
	switch p.Kind {
	case KindUSB:
		if p.USB != nil {
			return fmt.Sprintf("usb(baud=%d)", p.USB.BaudRate)
		}
	case KindUDP:
		if p.UDP != nil {
			return fmt.Sprintf("udp(port=%d)", p.UDP.ServerPort)
		}
	case KindTCP:
		if p.TCP != nil {
			return fmt.Sprintf("tcp(%s:%d)", p.TCP.ServerIP, p.TCP.ServerPort)
		}
	case KindBluetooth:
		if p.Bluetooth != nil {
			return fmt.Sprintf("bluetooth(%s)", p.Bluetooth.Address)
		}
	}
	return p.Kind.String()
}

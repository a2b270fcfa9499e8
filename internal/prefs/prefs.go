// Package prefs stores the user's connection preferences as string key/values
// and exposes them through typed, read-only accessors.
package prefs

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"wearrelay/internal/connection"
)

// Preference keys.
const (
	KeyConnectionType   = "pref_connection_type"
	KeyUSBBaudRate      = "pref_baud_type"
	KeyUDPServerPort    = "pref_udp_server_port"
	KeyTCPServerIP      = "pref_server_ip"
	KeyTCPServerPort    = "pref_server_port"
	KeyBluetoothAddress = "pref_bluetooth_device_address"

	KeyRateExtendedStatus = "pref_mavlink_stream_rate_ext_stat"
	KeyRateExtra1         = "pref_mavlink_stream_rate_extra1"
	KeyRateExtra2         = "pref_mavlink_stream_rate_extra2"
	KeyRateExtra3         = "pref_mavlink_stream_rate_extra3"
	KeyRatePosition       = "pref_mavlink_stream_rate_position"
	KeyRateRCChannels     = "pref_mavlink_stream_rate_rc_channels"
	KeyRateRawSensors     = "pref_mavlink_stream_rate_raw_sensors"
	KeyRateRawController  = "pref_mavlink_stream_rate_raw_controller"

	KeyDroneShareLogin    = "dshare_username"
	KeyDroneSharePassword = "dshare_password"
	KeyDroneShareEnabled  = "dshare_enabled"
	KeyLiveUploadEnabled  = "pref_live_upload_enabled"
)

// Defaults for unset keys.
const (
	DefaultConnectionType = "usb"
	DefaultUSBBaudRate    = 57600
	DefaultUDPServerPort  = 14550
	DefaultTCPServerPort  = 5763
)

var defaultRates = connection.StreamRates{
	ExtendedStatus: 2,
	Extra1:         10,
	Extra2:         2,
	Extra3:         2,
	Position:       3,
	RCChannels:     2,
	RawSensors:     2,
	RawController:  3,
}

// Backend is a string key/value store.
type Backend interface {
	Get(key string) (string, bool)
}

// Store is a writable backend used by setup flows and the CLI.
type Store interface {
	Backend
	Set(key, value string) error
	All() (map[string]string, error)
}

// Preferences implements connection.Source on top of a Backend.
type Preferences struct {
	b Backend
}

var _ connection.Source = (*Preferences)(nil)

func New(b Backend) *Preferences { return &Preferences{b: b} }

func (p *Preferences) getString(key, def string) string {
	if v, ok := p.b.Get(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *Preferences) getInt(key string, def int) int {
	v, ok := p.b.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func (p *Preferences) getBool(key string, def bool) bool {
	v, ok := p.b.Get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func (p *Preferences) ConnectionType() string   { return p.getString(KeyConnectionType, DefaultConnectionType) }
func (p *Preferences) USBBaudRate() int         { return p.getInt(KeyUSBBaudRate, DefaultUSBBaudRate) }
func (p *Preferences) UDPServerPort() int       { return p.getInt(KeyUDPServerPort, DefaultUDPServerPort) }
func (p *Preferences) TCPServerIP() string      { return p.getString(KeyTCPServerIP, "") }
func (p *Preferences) TCPServerPort() int       { return p.getInt(KeyTCPServerPort, DefaultTCPServerPort) }
func (p *Preferences) BluetoothAddress() string { return p.getString(KeyBluetoothAddress, "") }

func (p *Preferences) StreamRates() connection.StreamRates {
	return connection.StreamRates{
		ExtendedStatus: p.getInt(KeyRateExtendedStatus, defaultRates.ExtendedStatus),
		Extra1:         p.getInt(KeyRateExtra1, defaultRates.Extra1),
		Extra2:         p.getInt(KeyRateExtra2, defaultRates.Extra2),
		Extra3:         p.getInt(KeyRateExtra3, defaultRates.Extra3),
		Position:       p.getInt(KeyRatePosition, defaultRates.Position),
		RCChannels:     p.getInt(KeyRateRCChannels, defaultRates.RCChannels),
		RawSensors:     p.getInt(KeyRateRawSensors, defaultRates.RawSensors),
		RawController:  p.getInt(KeyRateRawController, defaultRates.RawController),
	}
}

func (p *Preferences) RemoteLogging() connection.DroneShare {
	return connection.DroneShare{
		Login:      p.getString(KeyDroneShareLogin, ""),
		Password:   p.getString(KeyDroneSharePassword, ""),
		Enabled:    p.getBool(KeyDroneShareEnabled, false),
		LiveUpload: p.getBool(KeyLiveUploadEnabled, false),
	}
}

// MemoryBackend is an in-process Store.
type MemoryBackend struct {
	mu   sync.RWMutex
	vals map[string]string
}

func NewMemoryBackend(seed map[string]string) *MemoryBackend {
	m := &MemoryBackend{vals: make(map[string]string, len(seed))}
	for k, v := range seed {
		m.vals[k] = v
	}
	return m
}

func (m *MemoryBackend) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	return v, ok
}

func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	m.vals[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) All() (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.vals))
	for k, v := range m.vals {
		out[k] = v
	}
	return out, nil
}

// SortedKeys returns the keys of vals in lexical order.
func SortedKeys(vals map[string]string) []string {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Seed writes each value whose key is not stored yet.
func Seed(s Store, seed map[string]string) error {
	d, hasDefault := s.(interface{ SetDefault(key, value string) error })
	for _, k := range SortedKeys(seed) {
		if hasDefault {
			if err := d.SetDefault(k, seed[k]); err != nil {
				return err
			}
			continue
		}
		if _, ok := s.Get(k); ok {
			continue
		}
		if err := s.Set(k, seed[k]); err != nil {
			return err
		}
	}
	return nil
}

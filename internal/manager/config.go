package manager

import (
	"time"

	"github.com/rs/zerolog"

	"wearrelay/internal/connection"
	"wearrelay/internal/drone"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultWatchdogTimeout = 30 * time.Second
)

// Transport delivers opaque payloads to paired companions. SendAsync must not
// block; the result only reports local enqueue success.
type Transport interface {
	SendAsync(path string, payload []byte) bool
}

// ParamsBuilder builds connection parameters from current preferences.
// connection.Builder satisfies it.
type ParamsBuilder interface {
	Build() (connection.Parameters, bool)
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Client    drone.Client
	Transport Transport
	Params    ParamsBuilder
	Publisher EventPublisher
	Logger    zerolog.Logger
	// WatchdogTimeout is the idle window after the last observed command.
	WatchdogTimeout time.Duration
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		log:       cfg.Logger.With().Str("component", "manager").Logger(),
		client:    cfg.Client,
		transport: cfg.Transport,
		params:    cfg.Params,
		publisher: cfg.Publisher,
		state:     StateNotStarted,
		inbox:     newInbox(),
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
	// Apply defaults if unset
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.WatchdogTimeout <= 0 {
		m.watchdog = newWatchdog(defaultWatchdogTimeout)
	} else {
		m.watchdog = newWatchdog(cfg.WatchdogTimeout)
	}
	m.refreshSnapshot()
	return m
}

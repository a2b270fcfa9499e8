package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"wearrelay/internal/connection"
	"wearrelay/internal/drone"
)

type Manager struct {
	log       zerolog.Logger
	transport Transport
	params    ParamsBuilder
	publisher EventPublisher

	// Owned by the Run goroutine.
	client      drone.Client
	state       SessionState
	pending     []Command
	watchdog    *watchdog
	lastEvent   string
	lastEventAt time.Time

	inbox    *inbox
	done     chan struct{}
	doneOnce sync.Once
	running  atomic.Bool

	snapMu sync.RWMutex
	snap   Snapshot

	startTime time.Time
}

func New(client drone.Client, transport Transport, params ParamsBuilder) *Manager {
	return NewWithConfig(ManagerConfig{
		Client:    client,
		Transport: transport,
		Params:    params,
	})
}

// Run binds the drone client and processes loop work until ctx is done or
// the watchdog stops the relay (ErrIdleShutdown). The client is torn down
// before Run returns.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	m.bind()
	m.refreshSnapshot()
	for {
		select {
		case <-ctx.Done():
			m.teardown("context done")
			return ctx.Err()
		case <-m.inbox.ready:
			// work posted while this batch runs lands in the next one
			for _, fn := range m.inbox.take() {
				fn()
				m.refreshSnapshot()
			}
		case <-m.watchdog.C():
			if m.onWatchdog() {
				m.teardown("idle")
				return ErrIdleShutdown
			}
			m.refreshSnapshot()
		}
	}
}

// Done is closed once Run has torn the session down.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Ready reports whether the loop is running and has not been torn down.
func (m *Manager) Ready() bool {
	if !m.running.Load() {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Submit hands an inbound action to the loop. Unknown names are rejected
// but still count as observed activity for the watchdog.
func (m *Manager) Submit(name string) error {
	a, err := ParseAction(name)
	if err != nil {
		if !m.post(func() {
			m.log.Warn().Str("action", name).Msg("ignoring unknown action")
			m.resetWatchdog()
		}) {
			return ErrClosed
		}
		return err
	}
	if !m.post(func() { m.handleAction(a) }) {
		return ErrClosed
	}
	return nil
}

// Replace installs a fresh drone client, e.g. after the previous one was
// interrupted. Queued commands are kept and run once the new session starts.
func (m *Manager) Replace(client drone.Client) error {
	if !m.post(func() { m.replace(client) }) {
		return ErrClosed
	}
	return nil
}

// post queues fn for the loop; false once the loop has exited.
func (m *Manager) post(fn func()) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	m.inbox.push(fn)
	return true
}

// bind asks the client to report when it can be started.
func (m *Manager) bind() {
	if m.client == nil || m.state != StateNotStarted {
		return
	}
	m.state = StateStarting
	m.client.Bind(&serviceListener{m: m, client: m.client})
}

func (m *Manager) replace(client drone.Client) {
	if m.state == StateDestroyed {
		return
	}
	if m.client != nil && m.client != client {
		m.client.Destroy()
	}
	m.client = client
	m.state = StateNotStarted
	m.log.Info().Msg("drone client replaced")
	m.bind()
}

// buildConnectionParameters reads current preferences; ok=false means do
// not connect.
func (m *Manager) buildConnectionParameters() (connection.Parameters, bool) {
	if m.params == nil {
		m.log.Error().Msg("no connection parameter source configured")
		return connection.Parameters{}, false
	}
	return m.params.Build()
}

func (m *Manager) teardown(reason string) {
	m.watchdog.stop()
	if m.client != nil {
		if m.client.IsConnected() {
			if err := m.client.Disconnect(); err != nil {
				m.log.Warn().Err(err).Msg("disconnect on teardown")
			}
		}
		m.client.Destroy()
	}
	m.state = StateDestroyed
	m.log.Info().Str("reason", reason).Int("pending", len(m.pending)).Msg("relay session torn down")
	m.publisher.Publish(Event{Name: "teardown", Fields: map[string]any{"reason": reason}})
	m.refreshSnapshot()
	m.doneOnce.Do(func() { close(m.done) })
}

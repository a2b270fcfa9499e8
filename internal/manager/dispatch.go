package manager

import (
	"time"

	"wearrelay/internal/drone"
	"wearrelay/pkg/types"
)

// handleAction runs on the loop. Every action re-arms the watchdog.
func (m *Manager) handleAction(a Action) {
	actionsTotal.WithLabelValues(string(a)).Inc()
	switch a {
	case ActionShowStatus:
		m.sendStatus(a)
	case ActionConnect:
		// parameters are captured now, not when the queued command runs
		if p, ok := m.buildConnectionParameters(); ok {
			m.requestAction(ConnectCommand{Params: p})
		}
	case ActionDisconnect:
		m.requestAction(DisconnectCommand{})
	}
	m.resetWatchdog()
}

// sendStatus replies with the encoded vehicle state, or an empty payload
// when the client has none. It never waits for the session.
func (m *Manager) sendStatus(a Action) {
	var data []byte
	if m.client != nil {
		if attr, ok := m.client.Attribute(drone.AttributeState); ok && attr != nil {
			b, err := attr.MarshalBinary()
			if err != nil {
				m.log.Warn().Err(err).Msg("encode vehicle state")
			} else {
				data = b
			}
		}
	}
	m.send(types.ActionPath(string(a)), data)
}

// requestAction runs cmd now when the session is started, otherwise
// appends it to the pending queue.
func (m *Manager) requestAction(cmd Command) {
	if m.state == StateStarted {
		m.execute(cmd)
		return
	}
	m.pending = append(m.pending, cmd)
	pendingGauge.Set(float64(len(m.pending)))
	m.log.Debug().Str("command", cmd.Kind()).Int("pending", len(m.pending)).Str("state", m.state.String()).Msg("command queued")
}

func (m *Manager) execute(cmd Command) {
	commandsTotal.WithLabelValues(cmd.Kind()).Inc()
	if m.client == nil {
		m.log.Warn().Str("command", cmd.Kind()).Msg("no drone client; command dropped")
		return
	}
	var err error
	switch c := cmd.(type) {
	case ConnectCommand:
		m.log.Info().Stringer("params", c.Params).Msg("connecting")
		err = m.client.Connect(c.Params)
	case DisconnectCommand:
		m.log.Info().Msg("disconnecting")
		err = m.client.Disconnect()
	}
	fields := map[string]any{"command": cmd.Kind()}
	if err != nil {
		m.log.Warn().Err(err).Str("command", cmd.Kind()).Msg("drone command failed")
		fields["error"] = err.Error()
	}
	m.publisher.Publish(Event{Name: "command_executed", Fields: fields})
}

// onSessionStarted registers for vehicle events, starts the client and
// drains the pending queue in order. Repeat calls are no-ops.
func (m *Manager) onSessionStarted() {
	if m.client == nil || m.state == StateStarted || m.state == StateDestroyed {
		return
	}
	m.client.RegisterListener(&droneListener{m: m, client: m.client})
	m.client.Start()
	m.state = StateStarted
	m.log.Info().Int("pending", len(m.pending)).Msg("drone session started")
	m.publisher.Publish(Event{Name: "session_started", Fields: map[string]any{"pending": len(m.pending)}})

	for len(m.pending) > 0 {
		cmd := m.pending[0]
		m.pending[0] = nil
		m.pending = m.pending[1:]
		m.execute(cmd)
	}
	m.pending = nil
	pendingGauge.Set(0)
}

// onSessionInterrupted discards the client; a new one must be installed
// with Replace before queued commands can run.
func (m *Manager) onSessionInterrupted(reason string) {
	if m.client == nil {
		return
	}
	m.log.Warn().Str("reason", reason).Msg("drone service interrupted")
	m.client.Destroy()
	m.client = nil
	m.state = StateInterrupted
	m.publisher.Publish(Event{Name: EventSessionInterrupted, Fields: map[string]any{"reason": reason}})
}

func (m *Manager) onConnectionFailed(reason string) {
	connectionFailures.Inc()
	m.log.Warn().Str("reason", reason).Msg("drone connection failed")
	m.publisher.Publish(Event{Name: "connection_failed", Fields: map[string]any{"reason": reason}})
}

// notifyEvent forwards a vehicle event to companions; the path is the
// signal, there is no payload.
func (m *Manager) notifyEvent(name string) {
	m.lastEvent = name
	m.lastEventAt = time.Now()
	m.send(types.EventPath(name), nil)
}

func (m *Manager) send(path string, data []byte) {
	if m.transport != nil && m.transport.SendAsync(path, data) {
		messagesTotal.WithLabelValues("sent").Inc()
		return
	}
	messagesTotal.WithLabelValues("dropped").Inc()
	m.log.Debug().Str("path", path).Msg("companion message not enqueued")
}

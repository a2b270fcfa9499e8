package manager

import (
	"wearrelay/pkg/types"
)

// refreshSnapshot copies loop-owned state for concurrent readers.
func (m *Manager) refreshSnapshot() {
	s := Snapshot{
		State:            m.state,
		Connected:        m.client != nil && m.client.IsConnected(),
		WatchdogDeadline: m.watchdog.deadline,
		LastEvent:        m.lastEvent,
		LastEventAt:      m.lastEventAt,
	}
	if len(m.pending) > 0 {
		s.Pending = make([]string, len(m.pending))
		for i, c := range m.pending {
			s.Pending[i] = c.Kind()
		}
	}
	stateGauge.Set(float64(m.state))
	m.snapMu.Lock()
	m.snap = s
	m.snapMu.Unlock()
}

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	s := m.snap
	s.Pending = append([]string(nil), m.snap.Pending...)
	return s
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	s := m.Snapshot()
	resp := types.StatusResponse{
		State:                  s.State.String(),
		Connected:              s.Connected,
		PendingActions:         len(s.Pending),
		Pending:                s.Pending,
		WatchdogTimeoutSeconds: int(m.watchdog.timeout.Seconds()),
		LastEvent:              s.LastEvent,
		StartedAt:              m.startTime.Unix(),
	}
	if !s.WatchdogDeadline.IsZero() {
		resp.WatchdogDeadline = s.WatchdogDeadline.Unix()
	}
	if !s.LastEventAt.IsZero() {
		resp.LastEventAt = s.LastEventAt.Unix()
	}
	if c, ok := m.transport.(interface{ Len() int }); ok {
		resp.Companions = c.Len()
	}
	return resp
}

package manager

import "time"

// watchdog is a single re-armable timer read by the Run loop. It is only
// touched from the loop goroutine, so reset and fire never race.
type watchdog struct {
	timeout  time.Duration
	timer    *time.Timer
	deadline time.Time
}

func newWatchdog(timeout time.Duration) *watchdog {
	return &watchdog{timeout: timeout}
}

// C returns the firing channel; nil (blocks forever) while disarmed.
func (w *watchdog) C() <-chan time.Time {
	if w.timer == nil {
		return nil
	}
	return w.timer.C
}

func (w *watchdog) reset() {
	w.stop()
	w.timer = time.NewTimer(w.timeout)
	w.deadline = time.Now().Add(w.timeout)
}

func (w *watchdog) stop() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.deadline = time.Time{}
}

func (m *Manager) resetWatchdog() { m.watchdog.reset() }

// onWatchdog handles a firing. It returns true when the relay should stop:
// there is no client or the client has no connected vehicle. Otherwise the
// timer is re-armed.
func (m *Manager) onWatchdog() bool {
	m.watchdog.stop()
	if m.client == nil || !m.client.IsConnected() {
		if n := len(m.pending); n > 0 {
			// the session may only be slow to start; queued commands are lost
			m.log.Warn().Int("pending", n).Str("state", m.state.String()).Msg("watchdog stopping relay with queued commands")
		}
		watchdogShutdowns.Inc()
		m.publisher.Publish(Event{Name: "watchdog_shutdown", Fields: map[string]any{"pending": len(m.pending)}})
		return true
	}
	m.watchdog.reset()
	return false
}

package manager

import "wearrelay/internal/drone"

// serviceListener and droneListener move client callbacks onto the loop.
// Callbacks from a client that has since been replaced are ignored.

type serviceListener struct {
	m      *Manager
	client drone.Client
}

func (l *serviceListener) OnServiceConnected() {
	l.m.post(func() {
		if l.m.client != l.client {
			return
		}
		l.m.log.Debug().Msg("drone service connected")
		l.m.onSessionStarted()
	})
}

func (l *serviceListener) OnServiceInterrupted() {
	l.m.post(func() {
		l.m.log.Debug().Msg("drone service binding interrupted")
	})
}

type droneListener struct {
	m      *Manager
	client drone.Client
}

func (l *droneListener) OnDroneEvent(event string, _ map[string]any) {
	l.m.post(func() {
		if l.m.client != l.client {
			return
		}
		l.m.notifyEvent(event)
	})
}

func (l *droneListener) OnDroneConnectionFailed(reason string) {
	l.m.post(func() {
		if l.m.client != l.client {
			return
		}
		l.m.onConnectionFailed(reason)
	})
}

func (l *droneListener) OnDroneServiceInterrupted(reason string) {
	l.m.post(func() {
		if l.m.client != l.client {
			return
		}
		l.m.onSessionInterrupted(reason)
	})
}

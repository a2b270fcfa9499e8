package manager

import (
	"errors"
	"sync"
	"testing"
	"time"

	"wearrelay/internal/connection"
	"wearrelay/internal/drone"
)

// fakeClient records every call made by the manager.
type fakeClient struct {
	mu        sync.Mutex
	calls     []string
	started   bool
	connected bool
	service   drone.ServiceListener
	listeners []drone.Listener
	state     drone.Attribute
	connErr   error
}

func (f *fakeClient) record(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeClient) Bind(l drone.ServiceListener) {
	f.mu.Lock()
	f.service = l
	f.mu.Unlock()
	f.record("bind")
}

func (f *fakeClient) RegisterListener(l drone.Listener) {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
	f.record("register")
}

func (f *fakeClient) Start() {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	f.record("start")
}

func (f *fakeClient) Destroy() { f.record("destroy") }

func (f *fakeClient) Connect(p connection.Parameters) error {
	f.record("connect:" + p.String())
	if f.connErr != nil {
		return f.connErr
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Disconnect() error {
	f.record("disconnect")
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) IsStarted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Attribute(t drone.AttributeType) (drone.Attribute, bool) {
	if t != drone.AttributeState || f.state == nil {
		return nil, false
	}
	return f.state, true
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) serviceListener() drone.ServiceListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.service
}

func (f *fakeClient) droneListener() drone.Listener {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.listeners) == 0 {
		return nil
	}
	return f.listeners[len(f.listeners)-1]
}

// commandCalls filters Calls to connect/disconnect entries.
func (f *fakeClient) commandCalls() []string {
	var out []string
	for _, c := range f.Calls() {
		if c == "disconnect" || len(c) > 8 && c[:8] == "connect:" {
			out = append(out, c)
		}
	}
	return out
}

type sentMessage struct {
	path string
	data []byte
}

type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	refuse  bool
	clients int
}

func (f *fakeTransport) SendAsync(path string, data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse {
		return false
	}
	f.sent = append(f.sent, sentMessage{path: path, data: data})
	return true
}

func (f *fakeTransport) Len() int { return f.clients }

func (f *fakeTransport) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// fakeParams returns a fixed result and counts builds.
type fakeParams struct {
	mu     sync.Mutex
	p      connection.Parameters
	ok     bool
	builds int
}

func (f *fakeParams) Build() (connection.Parameters, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds++
	return f.p, f.ok
}

func tcpParams(t *testing.T, ip string, port int) *fakeParams {
	t.Helper()
	p, err := connection.NewTCP(ip, port, connection.StreamRates{}, nil)
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	return &fakeParams{p: p, ok: true}
}

type rawAttr []byte

func (r rawAttr) MarshalBinary() ([]byte, error) { return []byte(r), nil }

type failingAttr struct{}

func (failingAttr) MarshalBinary() ([]byte, error) { return nil, errors.New("encode failed") }

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// syncEventClient reports link changes to its listeners from inside
// Connect, Disconnect and Destroy, on the caller's goroutine.
type syncEventClient struct {
	*fakeClient
}

func (s *syncEventClient) fire(event string) {
	s.mu.Lock()
	ls := append([]drone.Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range ls {
		l.OnDroneEvent(event, nil)
	}
}

func (s *syncEventClient) Connect(p connection.Parameters) error {
	if err := s.fakeClient.Connect(p); err != nil {
		return err
	}
	s.fire(drone.EventConnected)
	return nil
}

func (s *syncEventClient) Disconnect() error {
	_ = s.fakeClient.Disconnect()
	s.fire(drone.EventDisconnected)
	return nil
}

func (s *syncEventClient) Destroy() {
	s.fakeClient.Destroy()
	s.fire(drone.EventDisconnected)
}

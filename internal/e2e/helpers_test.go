package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wearrelay/internal/connection"
	"wearrelay/internal/drone"
	"wearrelay/internal/httpapi"
	"wearrelay/internal/manager"
	"wearrelay/internal/prefs"
	"wearrelay/internal/wear"
	"wearrelay/pkg/types"
)

// fakeDrone is a drone client whose service readiness and vehicle events
// are driven by the test.
type fakeDrone struct {
	mu        sync.Mutex
	calls     []string
	service   drone.ServiceListener
	listener  drone.Listener
	started   bool
	connected bool
}

func (f *fakeDrone) record(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeDrone) Bind(l drone.ServiceListener) {
	f.mu.Lock()
	f.service = l
	f.mu.Unlock()
}

func (f *fakeDrone) RegisterListener(l drone.Listener) {
	f.mu.Lock()
	f.listener = l
	f.mu.Unlock()
}

func (f *fakeDrone) Start() {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
}

func (f *fakeDrone) Destroy() { f.record("destroy") }

func (f *fakeDrone) Connect(p connection.Parameters) error {
	f.record("connect:" + p.Kind.String())
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeDrone) Disconnect() error {
	f.record("disconnect")
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	return nil
}

func (f *fakeDrone) IsStarted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeDrone) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeDrone) Attribute(t drone.AttributeType) (drone.Attribute, bool) {
	if t != drone.AttributeState {
		return nil, false
	}
	return stateAttr("armed"), true
}

func (f *fakeDrone) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDrone) serviceReady() {
	f.mu.Lock()
	l := f.service
	f.mu.Unlock()
	l.OnServiceConnected()
}

func (f *fakeDrone) emit(event string) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	l.OnDroneEvent(event, nil)
}

type stateAttr string

func (s stateAttr) MarshalBinary() ([]byte, error) { return []byte(s), nil }

type relay struct {
	srv   *httptest.Server
	mgr   *manager.Manager
	drone *fakeDrone
	hub   *wear.Hub
	store *prefs.MemoryBackend
	runCh chan error
}

type relayOptions struct {
	seed     map[string]string
	watchdog time.Duration
	prompter func(*wear.Hub) connection.Prompter
	devices  httpapi.DeviceLister
}

// newRelay wires the manager, hub and HTTP API the way serve does, around a
// fake drone client, and starts the manager loop.
func newRelay(t *testing.T, opts relayOptions) *relay {
	t.Helper()
	log := zerolog.Nop()
	store := prefs.NewMemoryBackend(opts.seed)
	hub := wear.NewHub(log)
	fd := &fakeDrone{}
	builder := connection.Builder{Prefs: prefs.New(store), Log: log}
	if opts.prompter != nil {
		builder.Prompter = opts.prompter(hub)
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Client:          fd,
		Transport:       hub,
		Params:          builder,
		Logger:          log,
		WatchdogTimeout: opts.watchdog,
	})
	hub.Handle(types.PathActionPrefix, func(path string, _ []byte) {
		_ = mgr.Submit(strings.TrimPrefix(path, types.PathActionPrefix))
	})
	srv := httptest.NewServer(httpapi.NewMux(mgr, httpapi.Deps{Wear: hub, Devices: opts.devices, Prefs: store}))

	ctx, cancel := context.WithCancel(context.Background())
	r := &relay{srv: srv, mgr: mgr, drone: fd, hub: hub, store: store, runCh: make(chan error, 1)}
	go func() { r.runCh <- mgr.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-mgr.Done()
		hub.Close()
		srv.Close()
	})
	waitFor(t, "manager running", mgr.Ready)
	waitFor(t, "client bound", func() bool {
		fd.mu.Lock()
		defer fd.mu.Unlock()
		return fd.service != nil
	})
	return r
}

func (r *relay) companion(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(r.srv.URL, "http")+"/wear", nil)
	if err != nil {
		t.Fatalf("dial companion: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	waitFor(t, "companion attached", func() bool { return r.hub.Len() > 0 })
	return conn
}

func (r *relay) status(t *testing.T) types.StatusResponse {
	t.Helper()
	resp, body := httpDo(t, http.MethodGet, r.srv.URL+"/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/status=%d body=%s", resp.StatusCode, body)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return st
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, rd)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// expectMessage reads companion messages until one arrives on path.
func expectMessage(t *testing.T, conn *websocket.Conn, path string) types.WireMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	defer conn.SetReadDeadline(time.Time{})
	for {
		var m types.WireMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("waiting for %s: %v", path, err)
		}
		if m.Path == path {
			return m
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

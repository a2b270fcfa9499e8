package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wearrelay/internal/manager"
	"wearrelay/internal/prefs"
	"wearrelay/pkg/types"
)

type mockService struct {
	status    types.StatusResponse
	ready     bool
	submitted []string
	submitErr error
}

func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }
func (m *mockService) Submit(action string) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	if _, err := manager.ParseAction(action); err != nil {
		return err
	}
	m.submitted = append(m.submitted, action)
	return nil
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

type mockDevices struct {
	devices []types.BluetoothDevice
	err     error
}

func (m mockDevices) PairedDevices(context.Context) ([]types.BluetoothDevice, error) {
	return m.devices, m.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return e
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{State: "started", PendingActions: 2, Companions: 1}}
	w := do(t, NewMux(svc, Deps{}), http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var got types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got.State != "started" || got.PendingActions != 2 || got.Companions != 1 {
		t.Fatalf("unexpected status: %+v", got)
	}
}

func TestActionsHandler(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc, Deps{})

	w := do(t, h, http.MethodPost, "/actions/connect", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var ack types.ActionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil || !ack.Accepted || ack.Action != "connect" {
		t.Fatalf("ack=%+v err=%v", ack, err)
	}
	if len(svc.submitted) != 1 || svc.submitted[0] != "connect" {
		t.Fatalf("submitted=%v", svc.submitted)
	}

	w = do(t, h, http.MethodPost, "/actions/takeoff", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status=%d", w.Code)
	}
	if e := decodeError(t, w); e.Code != http.StatusBadRequest || !strings.Contains(e.Error, "takeoff") {
		t.Fatalf("error body=%+v", e)
	}

	w = do(t, h, http.MethodGet, "/actions/connect", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status=%d", w.Code)
	}
}

func TestActionsErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{manager.ErrClosed, http.StatusServiceUnavailable},
		{mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := NewMux(&mockService{submitErr: tc.err}, Deps{})
		w := do(t, h, http.MethodPost, "/actions/disconnect", "")
		if w.Code != tc.want {
			t.Fatalf("err=%v status=%d want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc, Deps{})
	if w := do(t, h, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz=%d %q", w.Code, w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz not ready=%d", w.Code)
	}
	svc.ready = true
	if w := do(t, h, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("readyz ready=%d", w.Code)
	}
}

func TestOptionalDepsAnswerNotImplemented(t *testing.T) {
	h := NewMux(&mockService{}, Deps{})
	for _, rt := range []struct{ method, path, body string }{
		{http.MethodGet, "/wear", ""},
		{http.MethodGet, "/bluetooth/devices", ""},
		{http.MethodPost, "/bluetooth/select", `{"address":"00:11:22:33:44:55"}`},
		{http.MethodGet, "/prefs", ""},
		{http.MethodPut, "/prefs/pref_server_ip", `{"value":"10.0.0.5"}`},
	} {
		if w := do(t, h, rt.method, rt.path, rt.body); w.Code != http.StatusNotImplemented {
			t.Fatalf("%s %s status=%d", rt.method, rt.path, w.Code)
		}
	}
}

func TestBluetoothDevices(t *testing.T) {
	devs := []types.BluetoothDevice{{Address: "00:11:22:33:44:55", Name: "HC-06", Paired: true}}
	h := NewMux(&mockService{}, Deps{Devices: mockDevices{devices: devs}})
	w := do(t, h, http.MethodGet, "/bluetooth/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp types.DevicesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Devices) != 1 {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}

	h = NewMux(&mockService{}, Deps{Devices: mockDevices{err: errors.New("no bus")}})
	if w := do(t, h, http.MethodGet, "/bluetooth/devices", ""); w.Code != http.StatusBadGateway {
		t.Fatalf("error status=%d", w.Code)
	}
}

func TestBluetoothSelectStoresAddress(t *testing.T) {
	store := prefs.NewMemoryBackend(nil)
	h := NewMux(&mockService{}, Deps{Prefs: store})

	w := do(t, h, http.MethodPost, "/bluetooth/select", `{"address":"aa:bb:cc:dd:ee:ff"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if v, _ := store.Get(prefs.KeyBluetoothAddress); v != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("stored address=%q", v)
	}

	if w := do(t, h, http.MethodPost, "/bluetooth/select", `{"address":"nope"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad address status=%d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/bluetooth/select", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json status=%d", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/bluetooth/select", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("missing content-type status=%d", rr.Code)
	}
}

func TestPreferencesRoutes(t *testing.T) {
	store := prefs.NewMemoryBackend(map[string]string{
		prefs.KeyConnectionType:     "udp",
		prefs.KeyDroneSharePassword: "hunter2",
	})
	h := NewMux(&mockService{}, Deps{Prefs: store})

	w := do(t, h, http.MethodPut, "/prefs/"+prefs.KeyTCPServerPort, `{"value":"5760"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", w.Code, w.Body.String())
	}
	if w := do(t, h, http.MethodPut, "/prefs/"+prefs.KeyTCPServerPort, `{"value":"port"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid value status=%d", w.Code)
	}
	if w := do(t, h, http.MethodPut, "/prefs/pref_bogus", `{"value":"1"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown key status=%d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/prefs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	var resp types.PreferencesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Preferences) != 3 {
		t.Fatalf("prefs=%+v", resp.Preferences)
	}
	for _, p := range resp.Preferences {
		if p.Key == prefs.KeyDroneSharePassword && p.Value == "hunter2" {
			t.Fatalf("password echoed in listing")
		}
		if p.Key == prefs.KeyTCPServerPort && p.Value != "5760" {
			t.Fatalf("port=%q", p.Value)
		}
	}
}

func TestMaxBodyBytes(t *testing.T) {
	SetMaxBodyBytes(16)
	t.Cleanup(func() { SetMaxBodyBytes(0) })
	h := NewMux(&mockService{}, Deps{Prefs: prefs.NewMemoryBackend(nil)})
	w := do(t, h, http.MethodPost, "/bluetooth/select", `{"address":"00:11:22:33:44:55"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversized body status=%d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	SetCORSOptions(true, []string{"https://ground.example"}, []string{"GET", "POST"}, []string{"Content-Type"})
	t.Cleanup(func() { SetCORSOptions(false, nil, nil, nil) })
	h := NewMux(&mockService{}, Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set("Origin", "https://ground.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ground.example" {
		t.Fatalf("allow-origin=%q status=%d", got, w.Code)
	}
}

func TestSecurityHeader(t *testing.T) {
	w := do(t, NewMux(&mockService{}, Deps{}), http.MethodGet, "/healthz", "")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

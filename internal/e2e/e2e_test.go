package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wearrelay/internal/bluez"
	"wearrelay/internal/connection"
	"wearrelay/internal/manager"
	"wearrelay/internal/prefs"
	"wearrelay/internal/wear"
	"wearrelay/pkg/types"
)

func TestE2E_QueueDrainsWhenSessionStarts(t *testing.T) {
	r := newRelay(t, relayOptions{seed: map[string]string{
		prefs.KeyConnectionType: "tcp",
		prefs.KeyTCPServerIP:    "10.0.0.5",
	}})
	companion := r.companion(t)

	// 1) HTTP connect before the drone service is ready is queued
	resp, body := httpDo(t, http.MethodPost, r.srv.URL+"/actions/connect", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("connect status=%d body=%s", resp.StatusCode, body)
	}

	// 2) a companion disconnect is queued behind it
	if err := companion.WriteJSON(types.WireMessage{Path: types.ActionPath("disconnect")}); err != nil {
		t.Fatalf("companion write: %v", err)
	}
	waitFor(t, "two pending commands", func() bool { return r.status(t).PendingActions == 2 })
	st := r.status(t)
	if st.State != "starting" || st.Pending[0] != "connect" || st.Pending[1] != "disconnect" {
		t.Fatalf("status before start=%+v", st)
	}
	if st.WatchdogDeadline == 0 || st.Companions != 1 {
		t.Fatalf("watchdog/companions not reported: %+v", st)
	}
	if calls := r.drone.Calls(); len(calls) != 0 {
		t.Fatalf("client used before start: %v", calls)
	}

	// 3) service readiness drains the queue in arrival order
	r.drone.serviceReady()
	waitFor(t, "queue drained", func() bool { return r.status(t).PendingActions == 0 })
	calls := r.drone.Calls()
	if len(calls) != 2 || calls[0] != "connect:tcp" || calls[1] != "disconnect" {
		t.Fatalf("calls=%v", calls)
	}
	if st := r.status(t); st.State != "started" {
		t.Fatalf("state=%s", st.State)
	}

	// 4) a second readiness callback does not replay anything
	r.drone.serviceReady()
	resp, _ = httpDo(t, http.MethodPost, r.srv.URL+"/actions/connect", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("second connect status=%d", resp.StatusCode)
	}
	waitFor(t, "immediate connect", func() bool { return len(r.drone.Calls()) == 3 })
	if calls := r.drone.Calls(); calls[2] != "connect:tcp" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestE2E_EventsAndStatusReachCompanion(t *testing.T) {
	r := newRelay(t, relayOptions{seed: map[string]string{prefs.KeyConnectionType: "udp"}})
	companion := r.companion(t)
	r.drone.serviceReady()
	waitFor(t, "session started", func() bool { return r.status(t).State == "started" })

	r.drone.emit("heartbeat_first")
	m := expectMessage(t, companion, "/event/heartbeat_first")
	if len(m.Data) != 0 {
		t.Fatalf("event payload=%q", m.Data)
	}

	if err := companion.WriteJSON(types.WireMessage{Path: types.ActionPath("show-status")}); err != nil {
		t.Fatalf("companion write: %v", err)
	}
	m = expectMessage(t, companion, types.ActionPath("show-status"))
	if string(m.Data) != "armed" {
		t.Fatalf("status payload=%q", m.Data)
	}
	if st := r.status(t); st.LastEvent != "heartbeat_first" || st.LastEventAt == 0 || st.PendingActions != 0 {
		t.Fatalf("status=%+v", st)
	}
}

type pairedDevices []types.BluetoothDevice

func (p pairedDevices) PairedDevices(context.Context) ([]types.BluetoothDevice, error) { return p, nil }

func TestE2E_BluetoothSelectionFlow(t *testing.T) {
	devices := pairedDevices{{Address: "00:11:22:33:44:55", Name: "HC-06", Paired: true}}
	r := newRelay(t, relayOptions{
		seed:    map[string]string{prefs.KeyConnectionType: "bluetooth"},
		devices: devices,
		prompter: func(hub *wear.Hub) connection.Prompter {
			return &bluez.Prompter{Devices: devices, Sender: hub, Log: zerolog.Nop()}
		},
	})
	companion := r.companion(t)

	// without an address connect is dropped and the companion is asked to pick
	resp, _ := httpDo(t, http.MethodPost, r.srv.URL+"/actions/connect", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("connect status=%d", resp.StatusCode)
	}
	m := expectMessage(t, companion, types.PathSetupBluetoothDevices)
	var list types.DevicesResponse
	if err := json.Unmarshal(m.Data, &list); err != nil || len(list.Devices) != 1 {
		t.Fatalf("device list=%s err=%v", m.Data, err)
	}
	if st := r.status(t); st.PendingActions != 0 {
		t.Fatalf("connect without parameters was queued: %+v", st)
	}

	// the user picks the radio; the next connect is queued with it
	sel, _ := json.Marshal(types.SelectDeviceRequest{Address: list.Devices[0].Address})
	resp, body := httpDo(t, http.MethodPost, r.srv.URL+"/bluetooth/select", sel)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select status=%d body=%s", resp.StatusCode, body)
	}
	httpDo(t, http.MethodPost, r.srv.URL+"/actions/connect", nil)
	waitFor(t, "queued connect", func() bool { return r.status(t).PendingActions == 1 })
	r.drone.serviceReady()
	waitFor(t, "bluetooth connect", func() bool { return len(r.drone.Calls()) == 1 })
	if calls := r.drone.Calls(); calls[0] != "connect:bluetooth" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestE2E_IdleWatchdogStopsRelay(t *testing.T) {
	r := newRelay(t, relayOptions{
		seed:     map[string]string{prefs.KeyConnectionType: "usb"},
		watchdog: 50 * time.Millisecond,
	})
	resp, _ := httpDo(t, http.MethodPost, r.srv.URL+"/actions/connect", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("connect status=%d", resp.StatusCode)
	}

	select {
	case err := <-r.runCh:
		if !errors.Is(err, manager.ErrIdleShutdown) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watchdog did not stop the relay")
	}

	resp, _ = httpDo(t, http.MethodGet, r.srv.URL+"/readyz", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz after shutdown=%d", resp.StatusCode)
	}
	resp, _ = httpDo(t, http.MethodPost, r.srv.URL+"/actions/disconnect", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("action after shutdown=%d", resp.StatusCode)
	}
	if st := r.status(t); st.State != "destroyed" {
		t.Fatalf("state=%s", st.State)
	}
	if calls := r.drone.Calls(); len(calls) != 1 || calls[0] != "destroy" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestE2E_UnknownActionRejected(t *testing.T) {
	r := newRelay(t, relayOptions{})
	resp, body := httpDo(t, http.MethodPost, r.srv.URL+"/actions/takeoff", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	waitFor(t, "watchdog armed", func() bool { return r.status(t).WatchdogDeadline != 0 })
	if st := r.status(t); st.PendingActions != 0 {
		t.Fatalf("unknown action was queued: %+v", st)
	}
}

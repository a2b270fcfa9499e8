package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wearrelay/internal/bluez"
	"wearrelay/internal/connection"
	"wearrelay/internal/drone"
	"wearrelay/internal/httpapi"
	"wearrelay/internal/logging"
	"wearrelay/internal/manager"
	"wearrelay/internal/mavclient"
	"wearrelay/internal/prefs"
	"wearrelay/internal/wear"
	"wearrelay/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// fnOpenInventory connects to BlueZ; tests replace it to run without a bus.
var fnOpenInventory = func() (bluez.Lister, error) {
	inv, err := bluez.Open()
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// submitter is the manager surface companion handlers need.
type submitter interface {
	Submit(action string) error
}

// registerCompanionHandlers routes inbound companion messages: actions go to
// the manager, device selections go to the preference store.
func registerCompanionHandlers(hub *wear.Hub, mgr submitter, store prefs.Store, log zerolog.Logger) {
	hub.Handle(types.PathActionPrefix, func(path string, _ []byte) {
		name := strings.TrimPrefix(path, types.PathActionPrefix)
		if err := mgr.Submit(name); err != nil {
			log.Warn().Err(err).Str("action", name).Msg("companion action rejected")
		}
	})
	hub.Handle(types.PathSetupBluetoothSelect, func(_ string, data []byte) {
		address := string(data)
		var req types.SelectDeviceRequest
		if err := json.Unmarshal(data, &req); err == nil {
			address = req.Address
		}
		addr, err := prefs.SelectBluetoothDevice(store, address)
		if err != nil {
			log.Warn().Err(err).Msg("companion device selection rejected")
			return
		}
		log.Info().Str("address", addr).Msg("bluetooth device selected by companion")
	})
}

// replacing is the manager surface clientReplacer needs.
type replacing interface {
	Replace(client drone.Client) error
}

// clientReplacer installs a fresh drone client whenever the manager reports
// the current session as interrupted. Queued commands carry over.
type clientReplacer struct {
	mgr       replacing
	newClient func() drone.Client
	log       zerolog.Logger
}

func (r *clientReplacer) Publish(e manager.Event) {
	if e.Name != manager.EventSessionInterrupted || r.mgr == nil {
		return
	}
	if err := r.mgr.Replace(r.newClient()); err != nil {
		r.log.Warn().Err(err).Msg("replace drone client")
		return
	}
	r.log.Info().Interface("reason", e.Fields["reason"]).Msg("drone client reinstalled after interruption")
}

// serve wires the relay and blocks until a signal, ctx cancellation or an
// idle shutdown.
func serve(ctx context.Context, cfg *Config) error {
	rc, err := loadRuntime(cfg)
	if err != nil {
		return err
	}
	log, closeLog := logging.New(logging.Options{
		Level:      rc.Log.Level,
		Format:     rc.Log.Format,
		File:       rc.Log.File,
		MaxSizeMB:  rc.Log.MaxSizeMB,
		MaxBackups: rc.Log.MaxBackups,
		MaxAgeDays: rc.Log.MaxAgeDays,
	})
	defer closeLog()

	store, closeStore, err := openStore(rc.Prefs)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := wear.NewHub(log)
	defer hub.Close()

	builder := connection.Builder{Prefs: prefs.New(store), Log: log}
	var devices httpapi.DeviceLister
	var rfcomm mavclient.RFCOMMResolver = mavclient.Bindings(rc.Drone.RFCOMMBindings)
	if inv, err := fnOpenInventory(); err != nil {
		log.Warn().Err(err).Msg("bluetooth inventory unavailable; device selection disabled")
	} else {
		devices = inv
		builder.Prompter = &bluez.Prompter{Devices: inv, Sender: hub, Log: log}
		rfcomm = bluez.PairedCheck{Devices: inv, Next: rfcomm}
	}

	mavCfg := mavclient.Config{
		SystemID:         uint8(rc.Drone.SystemID),
		SerialDevice:     rc.Drone.SerialDevice,
		RFCOMM:           rfcomm,
		HeartbeatTimeout: time.Duration(rc.Drone.HeartbeatSeconds) * time.Second,
		Logger:           log,
	}
	replacer := &clientReplacer{
		newClient: func() drone.Client { return mavclient.New(mavCfg) },
		log:       log,
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Client:          replacer.newClient(),
		Transport:       hub,
		Params:          builder,
		Publisher:       replacer,
		Logger:          log,
		WatchdogTimeout: time.Duration(rc.Watchdog.TimeoutSeconds) * time.Second,
	})
	replacer.mgr = mgr
	registerCompanionHandlers(hub, mgr, store, log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpapi.SetLogger(log)
	httpapi.SetAuthSecret(rc.Auth.HS256Secret)
	httpapi.SetCORSOptions(rc.CORS.Enabled, rc.CORS.AllowedOrigins, rc.CORS.AllowedMethods, rc.CORS.AllowedHeaders)
	httpapi.SetBaseContext(ctx)
	srv := &http.Server{
		Handler:           httpapi.NewMux(mgr, httpapi.Deps{Wear: hub, Devices: devices, Prefs: store}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", rc.Addr)
	if err != nil {
		return err
	}
	if cfg.listening != nil {
		cfg.listening(ln.Addr())
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Int("watchdog_seconds", rc.Watchdog.TimeoutSeconds).Msg("wearrelay listening")
		srvErr <- srv.Serve(ln)
	}()
	runErr := make(chan error, 1)
	go func() { runErr <- mgr.Run(ctx) }()

	var result error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-runErr:
		if errors.Is(err, manager.ErrIdleShutdown) {
			log.Info().Msg("idle shutdown")
		} else if err != nil && !errors.Is(err, context.Canceled) {
			result = err
		}
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			result = err
		}
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	select {
	case <-mgr.Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("manager did not stop in time")
	}
	return result
}

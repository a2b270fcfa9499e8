package cli

import (
	"strings"

	"wearrelay/internal/config"
	"wearrelay/internal/prefs"
)

// loadRuntime merges the config file, environment and flags into a
// config.Config with defaults applied.
func loadRuntime(cfg *Config) (config.Config, error) {
	var rc config.Config
	if cfg.ConfigPath != "" {
		loaded, err := config.Load(cfg.ConfigPath)
		if err != nil {
			return rc, err
		}
		rc = loaded
	}
	if cfg.Addr != "" {
		rc.Addr = cfg.Addr
	}
	if cfg.LogLevel != "" {
		rc.Log.Level = cfg.LogLevel
	}
	if cfg.WatchdogSeconds > 0 {
		rc.Watchdog.TimeoutSeconds = cfg.WatchdogSeconds
	}
	if cfg.MemoryPrefs {
		rc.Prefs.Backend = "memory"
	}
	if s := envStr("WEARRELAY_AUTH_SECRET", ""); s != "" {
		rc.Auth.HS256Secret = s
	}
	rc.ApplyDefaults()
	return rc, nil
}

// openStore opens the configured preference backend and writes seed values
// that are not stored yet.
func openStore(pc config.PrefsConfig) (prefs.Store, func() error, error) {
	var store prefs.Store
	closer := func() error { return nil }
	if strings.EqualFold(pc.Backend, "memory") {
		store = prefs.NewMemoryBackend(nil)
	} else {
		s, err := prefs.OpenSQLite(pc.Path)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s.Close
	}
	if err := prefs.Seed(store, pc.Seed); err != nil {
		_ = closer()
		return nil, nil, err
	}
	return store, closer, nil
}

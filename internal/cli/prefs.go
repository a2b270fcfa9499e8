package cli

import (
	"fmt"
	"strings"

	"wearrelay/internal/prefs"
)

const secretMask = "********"

func withStore(cfg *Config, fn func(prefs.Store) error) error {
	rc, err := loadRuntime(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(rc.Prefs)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(store)
}

func prefsList(cfg *Config) error {
	return withStore(cfg, func(s prefs.Store) error {
		all, err := s.All()
		if err != nil {
			return err
		}
		for _, k := range prefs.SortedKeys(all) {
			v := all[k]
			if prefs.IsSecret(k) {
				v = secretMask
			}
			fmt.Fprintf(out(cfg), "%s = %s\n", k, v)
		}
		return nil
	})
}

func prefsGet(cfg *Config, key string) error {
	return withStore(cfg, func(s prefs.Store) error {
		v, ok := s.Get(key)
		if !ok {
			return fmt.Errorf("%s is not set", key)
		}
		fmt.Fprintln(out(cfg), v)
		return nil
	})
}

func prefsSet(cfg *Config, key, value string) error {
	if err := prefs.Validate(key, value); err != nil {
		return err
	}
	return withStore(cfg, func(s prefs.Store) error {
		v := strings.TrimSpace(value)
		if key == prefs.KeyBluetoothAddress && v != "" {
			addr, err := prefs.SelectBluetoothDevice(s, v)
			if err != nil {
				return err
			}
			v = addr
		} else if err := s.Set(key, v); err != nil {
			return err
		}
		if prefs.IsSecret(key) {
			v = secretMask
		}
		fmt.Fprintf(out(cfg), "%s = %s\n", key, v)
		return nil
	})
}

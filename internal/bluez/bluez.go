// Package bluez lists paired Bluetooth devices through the BlueZ D-Bus API
// and drives the companion-side device selection flow.
package bluez

import (
	"context"
	"fmt"
	"sort"

	"github.com/godbus/dbus/v5"

	"wearrelay/pkg/types"
)

const (
	busName         = "org.bluez"
	deviceInterface = "org.bluez.Device1"
	managedObjects  = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

type objectMap = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Inventory reads devices from the system bus.
type Inventory struct {
	conn *dbus.Conn
}

func Open() (*Inventory, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system D-Bus: %w", err)
	}
	return &Inventory{conn: conn}, nil
}

// PairedDevices returns paired devices sorted by name then address.
func (i *Inventory) PairedDevices(ctx context.Context) ([]types.BluetoothDevice, error) {
	var objects objectMap
	obj := i.conn.Object(busName, "/")
	if err := obj.CallWithContext(ctx, managedObjects, 0).Store(&objects); err != nil {
		return nil, fmt.Errorf("failed to get managed objects: %w", err)
	}
	return devicesFromObjects(objects), nil
}

func devicesFromObjects(objects objectMap) []types.BluetoothDevice {
	var out []types.BluetoothDevice
	for _, ifaces := range objects {
		props, ok := ifaces[deviceInterface]
		if !ok {
			continue
		}
		addr, _ := props["Address"].Value().(string)
		paired, _ := props["Paired"].Value().(bool)
		if addr == "" || !paired {
			continue
		}
		d := types.BluetoothDevice{Address: addr, Paired: paired}
		if name, ok := props["Alias"].Value().(string); ok && name != "" {
			d.Name = name
		} else if name, ok := props["Name"].Value().(string); ok {
			d.Name = name
		}
		d.Connected, _ = props["Connected"].Value().(bool)
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return out[a].Address < out[b].Address
	})
	return out
}

package mavclient

import (
	"fmt"
	"net"
	"strconv"

	"github.com/bluenviron/gomavlib/v3"

	"wearrelay/internal/connection"
)

// rfcommBaud is the line rate used for Bluetooth serial radios bound to an
// RFCOMM device node.
const rfcommBaud = 57600

// endpointsFor maps connection parameters to gomavlib endpoints.
func endpointsFor(p connection.Parameters, serialDevice string, rfcomm RFCOMMResolver) ([]gomavlib.EndpointConf, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch p.Kind {
	case connection.KindUSB:
		return []gomavlib.EndpointConf{
			gomavlib.EndpointSerial{Device: serialDevice, Baud: p.USB.BaudRate},
		}, nil
	case connection.KindUDP:
		return []gomavlib.EndpointConf{
			gomavlib.EndpointUDPServer{Address: fmt.Sprintf(":%d", p.UDP.ServerPort)},
		}, nil
	case connection.KindTCP:
		return []gomavlib.EndpointConf{
			gomavlib.EndpointTCPClient{Address: net.JoinHostPort(p.TCP.ServerIP, strconv.Itoa(p.TCP.ServerPort))},
		}, nil
	case connection.KindBluetooth:
		if rfcomm == nil {
			return nil, fmt.Errorf("%w %s", ErrNoRFCOMMBinding, p.Bluetooth.Address)
		}
		dev, err := rfcomm.RFCOMMDevice(p.Bluetooth.Address)
		if err != nil {
			return nil, err
		}
		return []gomavlib.EndpointConf{
			gomavlib.EndpointSerial{Device: dev, Baud: rfcommBaud},
		}, nil
	}
	return nil, fmt.Errorf("mavclient: unsupported connection kind %s", p.Kind)
}

// Package mavclient implements drone.Client over MAVLink using gomavlib.
// One node is opened per Connect; vehicle telemetry is folded into
// attributes and reported to registered listeners as named events.
package mavclient

import (
	"errors"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/rs/zerolog"

	"wearrelay/internal/common/fsutil"
	"wearrelay/internal/connection"
	"wearrelay/internal/drone"
)

const (
	defaultSystemID         = 255
	defaultHeartbeatPeriod  = time.Second
	defaultHeartbeatTimeout = 5 * time.Second
)

var ErrNotStarted = errors.New("mavclient: client not started")

type Config struct {
	// SystemID identifies this relay on the MAVLink network.
	SystemID         uint8
	SerialDevice     string
	// RFCOMM resolves the selected radio address to its serial node.
	RFCOMM           RFCOMMResolver
	HeartbeatPeriod  time.Duration
	HeartbeatTimeout time.Duration
	Logger           zerolog.Logger
}

// link is the subset of *gomavlib.Node the client drives.
type link interface {
	Events() <-chan gomavlib.Event
	Write(msg message.Message)
	Close()
}

type nodeLink struct{ n *gomavlib.Node }

func (l nodeLink) Events() <-chan gomavlib.Event { return l.n.Events() }
func (l nodeLink) Write(msg message.Message)     { l.n.WriteMessageAll(msg) }
func (l nodeLink) Close()                        { l.n.Close() }

type Client struct {
	cfg     Config
	log     zerolog.Logger
	openFn  func([]gomavlib.EndpointConf) (link, error)
	nowFn   func() time.Time
	mu      sync.Mutex
	started bool
	// gen increments on every Connect/Disconnect so goroutines of a
	// previous link stop reporting.
	gen       uint64
	link      link
	stop      chan struct{}
	listeners []drone.Listener
	tel       telemetry
	params    connection.Parameters
	// device is the serial node behind the current link, if any.
	device    string
	lost      bool
}

func New(cfg Config) *Client {
	if cfg.SystemID == 0 {
		cfg.SystemID = defaultSystemID
	}
	if cfg.HeartbeatPeriod <= 0 {
		cfg.HeartbeatPeriod = defaultHeartbeatPeriod
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	c := &Client{
		cfg:   cfg,
		log:   cfg.Logger.With().Str("component", "mavclient").Logger(),
		nowFn: time.Now,
	}
	c.openFn = c.openNode
	return c
}

func (c *Client) openNode(eps []gomavlib.EndpointConf) (link, error) {
	for _, ep := range eps {
		if s, ok := ep.(gomavlib.EndpointSerial); ok {
			if err := fsutil.CheckDevice(s.Device); err != nil {
				return nil, err
			}
		}
	}
	n, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   eps,
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: c.cfg.SystemID,
	})
	if err != nil {
		return nil, err
	}
	return nodeLink{n: n}, nil
}

// Bind reports readiness asynchronously; the MAVLink runtime has no
// separate service process to wait for.
func (c *Client) Bind(l drone.ServiceListener) {
	if l == nil {
		return
	}
	go l.OnServiceConnected()
}

func (c *Client) RegisterListener(l drone.Listener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

func (c *Client) Start() {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
}

func (c *Client) IsStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link != nil
}

// Destroy closes any open link and drops listeners.
func (c *Client) Destroy() {
	_ = c.Disconnect()
	c.mu.Lock()
	c.started = false
	c.listeners = nil
	c.mu.Unlock()
}

// Connect opens a MAVLink node for p, replacing any current link.
func (c *Client) Connect(p connection.Parameters) error {
	eps, err := endpointsFor(p, c.cfg.SerialDevice, c.cfg.RFCOMM)
	if err != nil {
		c.emitFailure(err.Error())
		return err
	}
	if !c.IsStarted() {
		return ErrNotStarted
	}
	_ = c.Disconnect()

	l, err := c.openFn(eps)
	if err != nil {
		c.log.Warn().Err(err).Stringer("params", p).Msg("open mavlink node")
		c.emitFailure(err.Error())
		return err
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.link = l
	c.stop = make(chan struct{})
	c.params = p
	c.tel = telemetry{}
	c.device = serialDevice(eps)
	c.lost = false
	stop := c.stop
	c.mu.Unlock()

	go c.readLoop(gen, l)
	go c.heartbeatLoop(gen, l, stop)
	c.log.Info().Stringer("params", p).Msg("mavlink link opened")
	if rl := p.RemoteLogging; rl != nil && rl.Enabled {
		c.log.Info().Str("login", rl.Login).Bool("password_set", rl.Password != "").Bool("live_upload", rl.LiveUpload).
			Msg("remote logging enabled for this link")
	}
	c.emit(drone.EventConnected)
	return nil
}

func (c *Client) Disconnect() error {
	c.mu.Lock()
	l := c.link
	if l == nil {
		c.mu.Unlock()
		return nil
	}
	c.link = nil
	c.gen++
	close(c.stop)
	c.stop = nil
	c.mu.Unlock()

	l.Close()
	c.log.Info().Msg("mavlink link closed")
	c.emit(drone.EventDisconnected)
	return nil
}

// Attribute returns the latest value of t, if one has been received.
func (c *Client) Attribute(t drone.AttributeType) (drone.Attribute, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch t {
	case drone.AttributeState:
		if c.tel.state != nil {
			return *c.tel.state, true
		}
	case drone.AttributeBattery:
		if c.tel.battery != nil {
			return *c.tel.battery, true
		}
	case drone.AttributePosition:
		if c.tel.position != nil {
			return *c.tel.position, true
		}
	}
	return nil, false
}

func (c *Client) readLoop(gen uint64, l link) {
	for evt := range l.Events() {
		switch e := evt.(type) {
		case *gomavlib.EventChannelOpen:
			c.log.Debug().Msg("mavlink channel open")
		case *gomavlib.EventChannelClose:
			c.log.Debug().Msg("mavlink channel closed")
		case *gomavlib.EventFrame:
			c.handleMessage(gen, l, e.SystemID(), e.ComponentID(), e.Message())
		}
	}
}

// heartbeatLoop announces the relay as a GCS and watches vehicle liveness.
func (c *Client) heartbeatLoop(gen uint64, l link, stop <-chan struct{}) {
	t := time.NewTicker(c.cfg.HeartbeatPeriod)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			l.Write(&common.MessageHeartbeat{
				Type:           common.MAV_TYPE_GCS,
				Autopilot:      common.MAV_AUTOPILOT_INVALID,
				SystemStatus:   common.MAV_STATE_ACTIVE,
				MavlinkVersion: 3,
			})
			c.checkHeartbeat(gen)
			c.checkDevice(gen)
		}
	}
}

// checkDevice reports the service as interrupted once when the serial node
// behind the current link disappears, e.g. an unplugged radio. The host is
// expected to destroy this client and install a new one.
func (c *Client) checkDevice(gen uint64) {
	c.mu.Lock()
	dev := c.device
	if gen != c.gen || dev == "" || c.lost {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	err := fsutil.CheckDevice(dev)
	if err == nil {
		return
	}
	c.mu.Lock()
	if gen != c.gen || c.lost {
		c.mu.Unlock()
		return
	}
	c.lost = true
	c.mu.Unlock()
	c.log.Error().Err(err).Str("device", dev).Msg("serial link lost")
	c.emitInterrupted(err.Error())
}

func serialDevice(eps []gomavlib.EndpointConf) string {
	for _, ep := range eps {
		if s, ok := ep.(gomavlib.EndpointSerial); ok {
			return s.Device
		}
	}
	return ""
}

func (c *Client) emitInterrupted(reason string) {
	for _, l := range c.snapshotListeners() {
		l.OnDroneServiceInterrupted(reason)
	}
}

func (c *Client) emit(event string) {
	for _, l := range c.snapshotListeners() {
		l.OnDroneEvent(event, nil)
	}
}

func (c *Client) emitFailure(reason string) {
	for _, l := range c.snapshotListeners() {
		l.OnDroneConnectionFailed(reason)
	}
}

// snapshotListeners copies the listener set so callbacks run unlocked.
func (c *Client) snapshotListeners() []drone.Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]drone.Listener(nil), c.listeners...)
}

package mavclient

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"wearrelay/internal/connection"
	"wearrelay/internal/drone"
)

// MAV_DATA_STREAM ids.
const (
	streamRawSensors     = 1
	streamExtendedStatus = 2
	streamRCChannels     = 3
	streamRawController  = 4
	streamPosition       = 6
	streamExtra1         = 10
	streamExtra2         = 11
	streamExtra3         = 12
)

// telemetry holds the latest decoded vehicle messages for one link.
type telemetry struct {
	state    *VehicleState
	battery  *Battery
	position *Position
	// heartbeatLost is set once the vehicle stops heartbeating after
	// having been heard.
	heartbeatLost bool
}

// handleMessage folds msg into telemetry and emits the resulting events.
// Messages from a link replaced since gen are dropped.
func (c *Client) handleMessage(gen uint64, l link, sysID, compID uint8, msg message.Message) {
	var events []string
	var requestRates bool
	var rates connection.StreamRates

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	now := c.nowFn()
	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		if uint64(m.Type) == uint64(common.MAV_TYPE_GCS) {
			break
		}
		prev := c.tel.state
		armed := uint64(m.BaseMode)&modeFlagSafetyArmed != 0
		next := VehicleState{
			SystemID:      sysID,
			VehicleType:   uint64(m.Type),
			Autopilot:     uint64(m.Autopilot),
			SystemStatus:  uint64(m.SystemStatus),
			CustomMode:    m.CustomMode,
			Armed:         armed,
			LastHeartbeat: now,
		}
		c.tel.state = &next
		switch {
		case prev == nil:
			events = append(events, drone.EventHeartbeatFirst)
			requestRates = true
			rates = c.params.Rates
		case c.tel.heartbeatLost:
			events = append(events, drone.EventHeartbeatRestore)
		}
		c.tel.heartbeatLost = false
		if prev != nil {
			if prev.Armed != next.Armed {
				events = append(events, drone.EventArming)
			}
			if prev.CustomMode != next.CustomMode {
				events = append(events, drone.EventModeUpdated)
			}
			if prev.SystemStatus != next.SystemStatus {
				events = append(events, drone.EventStateUpdated)
			}
		}
	case *common.MessageSysStatus:
		c.tel.battery = &Battery{
			VoltageMV:  int(m.VoltageBattery),
			CurrentCA:  int(m.CurrentBattery),
			Remaining:  int(m.BatteryRemaining),
			ReceivedAt: now,
		}
		events = append(events, drone.EventBattery)
	case *common.MessageGlobalPositionInt:
		c.tel.position = &Position{
			Lat:         float64(m.Lat) / 1e7,
			Lon:         float64(m.Lon) / 1e7,
			AltMSL:      float64(m.Alt) / 1000,
			AltRelative: float64(m.RelativeAlt) / 1000,
			Heading:     float64(m.Hdg) / 100,
			ReceivedAt:  now,
		}
		events = append(events, drone.EventPosition)
	}
	c.mu.Unlock()

	if requestRates {
		c.requestStreams(l, sysID, compID, rates)
	}
	for _, e := range events {
		c.emit(e)
	}
}

// checkHeartbeat emits heartbeat_timeout once when a vehicle that has been
// heard goes quiet for longer than HeartbeatTimeout.
func (c *Client) checkHeartbeat(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.tel.state == nil || c.tel.heartbeatLost {
		c.mu.Unlock()
		return
	}
	if c.nowFn().Sub(c.tel.state.LastHeartbeat) <= c.cfg.HeartbeatTimeout {
		c.mu.Unlock()
		return
	}
	c.tel.heartbeatLost = true
	c.mu.Unlock()
	c.log.Warn().Dur("timeout", c.cfg.HeartbeatTimeout).Msg("vehicle heartbeat lost")
	c.emit(drone.EventHeartbeatTimeout)
}

// requestStreams asks the vehicle for each telemetry stream at the
// configured rate. Zero rates are skipped.
func (c *Client) requestStreams(l link, sysID, compID uint8, r connection.StreamRates) {
	for _, s := range []struct {
		id   uint8
		rate int
	}{
		{streamExtendedStatus, r.ExtendedStatus},
		{streamExtra1, r.Extra1},
		{streamExtra2, r.Extra2},
		{streamExtra3, r.Extra3},
		{streamPosition, r.Position},
		{streamRCChannels, r.RCChannels},
		{streamRawSensors, r.RawSensors},
		{streamRawController, r.RawController},
	} {
		if s.rate <= 0 {
			continue
		}
		l.Write(&common.MessageRequestDataStream{
			TargetSystem:    sysID,
			TargetComponent: compID,
			ReqStreamId:     s.id,
			ReqMessageRate:  uint16(s.rate),
			StartStop:       1,
		})
	}
}

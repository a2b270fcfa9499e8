package mavclient

import (
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// MAV_MODE_FLAG_SAFETY_ARMED
const modeFlagSafetyArmed = 128

// VehicleState is the latest heartbeat-derived view of the vehicle.
type VehicleState struct {
	SystemID      uint8
	VehicleType   uint64
	Autopilot     uint64
	SystemStatus  uint64
	CustomMode    uint32
	Armed         bool
	LastHeartbeat time.Time
}

// MarshalBinary encodes the state as a protobuf Struct.
func (s VehicleState) MarshalBinary() ([]byte, error) {
	return marshalStruct(map[string]any{
		"system_id":      int(s.SystemID),
		"vehicle_type":   s.VehicleType,
		"autopilot":      s.Autopilot,
		"system_status":  s.SystemStatus,
		"custom_mode":    s.CustomMode,
		"armed":          s.Armed,
		"last_heartbeat": s.LastHeartbeat.UTC().Format(time.RFC3339),
	})
}

// Battery comes from SYS_STATUS.
type Battery struct {
	VoltageMV  int
	CurrentCA  int
	Remaining  int
	ReceivedAt time.Time
}

func (b Battery) MarshalBinary() ([]byte, error) {
	return marshalStruct(map[string]any{
		"voltage_mv": b.VoltageMV,
		"current_ca": b.CurrentCA,
		"remaining":  b.Remaining,
	})
}

// Position comes from GLOBAL_POSITION_INT, scaled to degrees and meters.
type Position struct {
	Lat         float64
	Lon         float64
	AltMSL      float64
	AltRelative float64
	Heading     float64
	ReceivedAt  time.Time
}

func (p Position) MarshalBinary() ([]byte, error) {
	return marshalStruct(map[string]any{
		"lat":          p.Lat,
		"lon":          p.Lon,
		"alt_msl":      p.AltMSL,
		"alt_relative": p.AltRelative,
		"heading":      p.Heading,
	})
}

func marshalStruct(m map[string]any) ([]byte, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// DecodeAttribute reverses MarshalBinary for any attribute in this package.
func DecodeAttribute(b []byte) (map[string]any, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return st.AsMap(), nil
}

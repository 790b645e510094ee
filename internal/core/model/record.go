package model

import (
	"fmt"
	"time"
)

// RecordType is the one-byte discriminant leading every record on the wire.
type RecordType uint8

// Protection unit (ATP) record types.
const (
	ATPProtectionState RecordType = 2   // protection state change
	ATPInterfaceState  RecordType = 3   // interface unit state change
	ATPRelayEvent      RecordType = 91  // PRS relay/communication event
	ATPShutdown        RecordType = 201 // shutdown, payload packs last location+speed
	ATPPeriodic        RecordType = 211 // periodic location+speed measurement
	ATPButton          RecordType = 216
	ATPCounterBoard    RecordType = 221
	ATPUSB             RecordType = 222
	ATPPRSStatus       RecordType = 223
	ATPSpeedometer     RecordType = 224
	ATPDownload        RecordType = 225
	ATPMVB             RecordType = 227
	ATPGPP             RecordType = 228
)

// Interface unit (MMI) record types.
const (
	MMIStartup    RecordType = 1
	MMIShutdown   RecordType = 2
	MMIModeChange RecordType = 3
	MMIError      RecordType = 4
	MMIUserAction RecordType = 5
	MMIPeriodic   RecordType = 11
)

// Record is one decoded log record. Location and Speed are populated only
// for the family's periodic measurement type and hold raw device units
// (centimeters, centimeters per second). Payload is opaque at this layer;
// its interpretation depends on Type.
type Record struct {
	Type      RecordType `json:"log_type"`
	Timestamp time.Time  `json:"timestamp"`
	Location  int32      `json:"location,omitempty"`
	Speed     int32      `json:"speed,omitempty"`
	Payload   []byte     `json:"payload,omitempty"`
}

// SpeedKmh returns the record's speed converted to km/h.
func (r Record) SpeedKmh() float64 {
	return SpeedKmh(r.Speed)
}

// LocationKm returns the record's location converted to kilometers.
func (r Record) LocationKm() float64 {
	return LocationKm(r.Location)
}

func (r Record) String() string {
	return fmt.Sprintf("Record(type=%d, time=%s, loc=%.3fkm, speed=%.1fkm/h)",
		r.Type, r.Timestamp.Format("2006-01-02 15:04:05"), r.LocationKm(), r.SpeedKmh())
}

// Header holds the fixed-width identifying fields decoded once per file.
// Fields are trimmed of their '-' padding. Date is the zero time when the
// raw field does not parse; header metadata never aborts a decode.
type Header struct {
	WorkShift string    `json:"work_shift"`
	TrainNo   string    `json:"train_no"`
	DriverID  string    `json:"driver_id"`
	VehicleID string    `json:"vehicle_id"`
	Date      time.Time `json:"date"`
}

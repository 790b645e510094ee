package model

import (
	"encoding/binary"
	"fmt"
)

// EventKind identifies the semantic category of an event record, shared
// across record families so the correlator can match events from different
// units.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindProtectionState
	KindInterfaceState
	KindRelayEvent
	KindShutdown
	KindDiagnostic
	KindStartup
	KindModeChange
	KindError
	KindUserAction
)

func (k EventKind) String() string {
	switch k {
	case KindProtectionState:
		return "protection_state"
	case KindInterfaceState:
		return "interface_state"
	case KindRelayEvent:
		return "relay_event"
	case KindShutdown:
		return "shutdown"
	case KindDiagnostic:
		return "diagnostic"
	case KindStartup:
		return "startup"
	case KindModeChange:
		return "mode_change"
	case KindError:
		return "error"
	case KindUserAction:
		return "user_action"
	}
	return "unknown"
}

// EventSpec describes one admissible event type within a family: its kind,
// display name, the minimum payload the validator requires, and the code
// tables used for classification. Codes is nil for types whose payload
// carries no status byte.
type EventSpec struct {
	Kind           EventKind
	Name           string
	MinPayload     int
	Codes          map[int]string
	Abnormal       map[int]bool
	Emergency      map[int]bool
	AbnormalAlways bool
}

// Family describes one recording unit's record set: which discriminant is
// the periodic measurement, whether periodic records carry a location word,
// and the admissible event types with their classification tables. The
// decoder, validator, and processors are all parameterized by a Family, so
// one pipeline serves every unit.
type Family struct {
	Name         string
	PeriodicType RecordType
	HasLocation  bool
	Events       map[RecordType]EventSpec
}

// IsPeriodic reports whether t is this family's periodic measurement type.
func (f *Family) IsPeriodic(t RecordType) bool {
	return t == f.PeriodicType
}

// Known reports whether t is admissible in this family's streams.
func (f *Family) Known(t RecordType) bool {
	if t == f.PeriodicType {
		return true
	}
	_, ok := f.Events[t]
	return ok
}

// EventClass is the classification of a single event record, decoded once
// and consumed read-only by the processors and the correlator.
type EventClass struct {
	Kind        EventKind  `json:"kind"`
	Type        RecordType `json:"log_type"`
	Name        string     `json:"name"`
	Code        int        `json:"code"`
	Description string     `json:"description"`
	Known       bool       `json:"known"`
	Emergency   bool       `json:"emergency,omitempty"`
	Shutdown    bool       `json:"shutdown,omitempty"`
	Abnormal    bool       `json:"abnormal,omitempty"`
}

// Classify decodes the event classification of r. It fails when r is not an
// event type of this family or its payload is shorter than the type's
// minimum; callers treat that as a single-record parse failure, never a
// run-level error. Unknown status codes classify successfully with a
// generated description so no record is silently lost.
func (f *Family) Classify(r Record) (EventClass, error) {
	spec, ok := f.Events[r.Type]
	if !ok {
		return EventClass{}, fmt.Errorf("record type %d is not an event type of family %s", r.Type, f.Name)
	}
	if len(r.Payload) < spec.MinPayload {
		return EventClass{}, fmt.Errorf("%s payload too short: %d bytes, need %d", spec.Name, len(r.Payload), spec.MinPayload)
	}

	ec := EventClass{
		Kind:        spec.Kind,
		Type:        r.Type,
		Name:        spec.Name,
		Code:        -1,
		Description: spec.Name,
		Known:       true,
		Shutdown:    spec.Kind == KindShutdown,
		Abnormal:    spec.AbnormalAlways,
	}

	if spec.Codes != nil {
		code := int(r.Payload[0])
		ec.Code = code
		if desc, known := spec.Codes[code]; known {
			ec.Description = desc
		} else {
			ec.Known = false
			ec.Description = fmt.Sprintf("unknown status (%d)", code)
		}
		if spec.Emergency[code] {
			ec.Emergency = true
		}
		if spec.Abnormal[code] {
			ec.Abnormal = true
		}
	}

	if ec.Shutdown {
		if loc, speed, ok := ShutdownInfo(r.Payload); ok {
			ec.Description = fmt.Sprintf("location %.2f km, speed %.1f km/h", loc, speed)
		}
	}

	return ec, nil
}

// ShutdownInfo decodes the last known location (km) and speed (km/h) packed
// into a shutdown record's payload as two little-endian int32 words.
func ShutdownInfo(payload []byte) (locKm, speedKmh float64, ok bool) {
	if len(payload) < 8 {
		return 0, 0, false
	}
	loc := int32(binary.LittleEndian.Uint32(payload[0:4]))
	speed := int32(binary.LittleEndian.Uint32(payload[4:8]))
	return LocationKm(loc), SpeedKmh(speed), true
}

// StationName interprets an arrival event's payload as a station identifier.
// The identifier must be printable ASCII; surrounding spaces and '-' padding
// are trimmed. ok is false for payloads that do not decode, which callers
// skip without failing the run.
func StationName(payload []byte) (string, bool) {
	if len(payload) == 0 {
		return "", false
	}
	for _, b := range payload {
		if b < 0x20 || b > 0x7e {
			return "", false
		}
	}
	name := trimPadding(string(payload))
	if name == "" {
		return "", false
	}
	return name, true
}

func trimPadding(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '-') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '-') {
		end--
	}
	return s[start:end]
}

// ATP is the protection unit's record family: periodic measurements carry
// both location and speed, and the event set covers protection state,
// interface state, relay communication, shutdown, and the diagnostic types.
var ATP = &Family{
	Name:         "atp",
	PeriodicType: ATPPeriodic,
	HasLocation:  true,
	Events: map[RecordType]EventSpec{
		ATPProtectionState: {
			Kind:       KindProtectionState,
			Name:       "protection state change",
			MinPayload: 1,
			Codes: map[int]string{
				0: "normal",
				1: "service brake",
				2: "emergency brake",
				3: "system fault",
				4: "communication fault",
				5: "balise sensor fault",
				6: "brake test",
				7: "overspeed warning",
				8: "automatic protection",
			},
			Abnormal:  map[int]bool{2: true, 3: true, 4: true},
			Emergency: map[int]bool{2: true},
		},
		ATPInterfaceState: {
			Kind:       KindInterfaceState,
			Name:       "interface state change",
			MinPayload: 1,
			Codes: map[int]string{
				0: "normal",
				1: "display abnormal",
				2: "key fault",
				3: "out of memory",
				4: "communication interrupted",
				5: "system restart",
			},
			Abnormal: map[int]bool{1: true, 2: true, 3: true},
		},
		ATPRelayEvent: {
			Kind:       KindRelayEvent,
			Name:       "relay event",
			MinPayload: 1,
			Codes: map[int]string{
				0: "communication normal",
				1: "train number set",
				2: "CRC error",
				3: "communication timeout",
				4: "train number mismatch",
				5: "connection lost",
				6: "connection restored",
			},
			Abnormal: map[int]bool{3: true, 4: true, 5: true},
		},
		ATPShutdown: {
			Kind:       KindShutdown,
			Name:       "shutdown",
			MinPayload: 8,
		},
		ATPButton:       {Kind: KindDiagnostic, Name: "button diagnostic"},
		ATPCounterBoard: {Kind: KindDiagnostic, Name: "counter board diagnostic"},
		ATPUSB:          {Kind: KindDiagnostic, Name: "usb diagnostic"},
		ATPPRSStatus:    {Kind: KindDiagnostic, Name: "prs status"},
		ATPSpeedometer:  {Kind: KindDiagnostic, Name: "speedometer diagnostic"},
		ATPDownload:     {Kind: KindDiagnostic, Name: "download record"},
		ATPMVB:          {Kind: KindDiagnostic, Name: "mvb diagnostic"},
		ATPGPP:          {Kind: KindDiagnostic, Name: "gpp diagnostic"},
	},
}

// MMI is the interface unit's record family: periodic records carry speed
// only, and events cover the unit's own lifecycle and operator interaction.
var MMI = &Family{
	Name:         "mmi",
	PeriodicType: MMIPeriodic,
	HasLocation:  false,
	Events: map[RecordType]EventSpec{
		MMIStartup:  {Kind: KindStartup, Name: "startup"},
		MMIShutdown: {Kind: KindShutdown, Name: "shutdown"},
		MMIModeChange: {
			Kind:       KindModeChange,
			Name:       "mode change",
			MinPayload: 1,
			Codes: map[int]string{
				0: "initializing",
				1: "full supervision",
				2: "on sight",
				3: "shunting",
			},
		},
		MMIError: {
			Kind:           KindError,
			Name:           "error",
			MinPayload:     1,
			AbnormalAlways: true,
		},
		MMIUserAction: {
			Kind:       KindUserAction,
			Name:       "user action",
			MinPayload: 1,
			Codes: map[int]string{
				1: "button press",
				2: "touch input",
				3: "function switch",
			},
		},
	},
}

// FamilyByName resolves a unit name from the CLI or config to its family.
func FamilyByName(name string) (*Family, error) {
	switch name {
	case "atp":
		return ATP, nil
	case "mmi":
		return MMI, nil
	}
	return nil, fmt.Errorf("unknown record family: %s", name)
}

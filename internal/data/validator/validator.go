// Package validator enforces the temporal, physical, and structural
// invariants a decoded stream must satisfy before analysis. Checks run in a
// fixed order and fail fast: one precise diagnosis beats a bag of unrelated
// ones when reviewing safety logs.
package validator

import (
	"fmt"

	"github.com/penwyp/go-ru-analyzer/internal/core/config"
	"github.com/penwyp/go-ru-analyzer/internal/core/model"
)

// Check identifies which validation stage rejected the stream.
type Check string

const (
	CheckBasic      Check = "basic"
	CheckTimestamps Check = "timestamps"
	CheckSpeed      Check = "speed"
	CheckLocation   Check = "location"
	CheckEvents     Check = "events"
)

// Error is the first violated invariant. Index is the offending record's
// position in the decoded sequence, -1 for stream-level violations.
type Error struct {
	Check Check
	Index int
	Msg   string
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("validation failed (%s) at record %d: %s", e.Check, e.Index, e.Msg)
	}
	return fmt.Sprintf("validation failed (%s): %s", e.Check, e.Msg)
}

func failf(check Check, index int, format string, args ...any) *Error {
	return &Error{Check: check, Index: index, Msg: fmt.Sprintf(format, args...)}
}

// Stream is a record sequence that passed every check. Processors accept
// only this type, so unvalidated data cannot reach analysis. Callers must
// not modify the returned slices.
type Stream struct {
	header   model.Header
	family   *model.Family
	records  []model.Record
	periodic []model.Record
}

// Header returns the file header the stream was decoded with.
func (s *Stream) Header() model.Header { return s.header }

// Family returns the record family the stream was validated against.
func (s *Stream) Family() *model.Family { return s.family }

// Records returns all records in file order.
func (s *Stream) Records() []model.Record { return s.records }

// Periodic returns the periodic measurement subset in file order.
func (s *Stream) Periodic() []model.Record { return s.periodic }

// Len returns the total record count.
func (s *Stream) Len() int { return len(s.records) }

// Validate runs every check over records and returns the validated stream,
// or the first violated invariant. Records are never mutated; a more
// permissive config may be used to re-validate the same decode output.
func Validate(header model.Header, records []model.Record, family *model.Family, cfg config.Config) (*Stream, error) {
	if err := checkBasic(records, cfg); err != nil {
		return nil, err
	}
	if err := checkTimestamps(records, cfg); err != nil {
		return nil, err
	}
	periodic := filterPeriodic(records, family)
	if err := checkSpeeds(periodic, cfg); err != nil {
		return nil, err
	}
	if family.HasLocation {
		if err := checkLocations(periodic, cfg); err != nil {
			return nil, err
		}
	}
	if err := checkEvents(records, family); err != nil {
		return nil, err
	}
	return &Stream{header: header, family: family, records: records, periodic: periodic}, nil
}

func checkBasic(records []model.Record, cfg config.Config) error {
	if len(records) == 0 {
		return failf(CheckBasic, -1, "no records")
	}
	if len(records) < cfg.MinRecords {
		return failf(CheckBasic, -1, "record count %d below minimum %d", len(records), cfg.MinRecords)
	}
	for i, rec := range records {
		if rec.Timestamp.IsZero() {
			return failf(CheckBasic, i, "missing timestamp")
		}
	}
	return nil
}

func checkTimestamps(records []model.Record, cfg config.Config) error {
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1].Timestamp, records[i].Timestamp
		if cur.Before(prev) {
			return failf(CheckTimestamps, i, "timestamp sequence not increasing")
		}
		if gap := cur.Sub(prev).Seconds(); gap > cfg.MaxTimeGap {
			return failf(CheckTimestamps, i, "time gap %.1fs exceeds maximum %.0fs", gap, cfg.MaxTimeGap)
		}
	}
	span := records[len(records)-1].Timestamp.Sub(records[0].Timestamp).Seconds()
	if span > cfg.MaxTimeSpan {
		return failf(CheckTimestamps, -1, "time span %.1fh exceeds maximum %.1fh", span/3600, cfg.MaxTimeSpan/3600)
	}
	return nil
}

func checkSpeeds(periodic []model.Record, cfg config.Config) error {
	for i, rec := range periodic {
		kmh := rec.SpeedKmh()
		if kmh > cfg.SpeedCeiling {
			return failf(CheckSpeed, i, "speed %.1f km/h exceeds ceiling %.0f km/h", kmh, cfg.SpeedCeiling)
		}
		if i == 0 {
			continue
		}
		dt := rec.Timestamp.Sub(periodic[i-1].Timestamp).Seconds()
		if dt == 0 {
			// No rate exists over a zero time delta.
			continue
		}
		a := (kmh - periodic[i-1].SpeedKmh()) / dt
		if a > cfg.AccelCeiling {
			return failf(CheckSpeed, i, "acceleration %.1f km/h/s exceeds ceiling %.1f km/h/s", a, cfg.AccelCeiling)
		}
		if a < -cfg.AccelCeiling {
			return failf(CheckSpeed, i, "deceleration %.1f km/h/s exceeds ceiling %.1f km/h/s", -a, cfg.AccelCeiling)
		}
	}
	return nil
}

func checkLocations(periodic []model.Record, cfg config.Config) error {
	for i := 1; i < len(periodic); i++ {
		prev, cur := periodic[i-1], periodic[i]
		if cur.Location < prev.Location {
			return failf(CheckLocation, i, "location sequence not increasing")
		}
		dt := cur.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt == 0 {
			continue
		}
		rate := (cur.LocationKm() - prev.LocationKm()) / dt * 3600
		if rate > cfg.LocationRateCeiling {
			return failf(CheckLocation, i, "location rate %.1f km/h exceeds ceiling %.0f km/h", rate, cfg.LocationRateCeiling)
		}
	}
	return nil
}

func checkEvents(records []model.Record, family *model.Family) error {
	for i, rec := range records {
		if family.IsPeriodic(rec.Type) {
			continue
		}
		spec, ok := family.Events[rec.Type]
		if !ok {
			return failf(CheckEvents, i, "unknown record type %d", rec.Type)
		}
		if len(rec.Payload) < spec.MinPayload {
			return failf(CheckEvents, i, "%s payload %d bytes, need at least %d", spec.Name, len(rec.Payload), spec.MinPayload)
		}
	}
	return nil
}

func filterPeriodic(records []model.Record, family *model.Family) []model.Record {
	var periodic []model.Record
	for _, rec := range records {
		if family.IsPeriodic(rec.Type) {
			periodic = append(periodic, rec)
		}
	}
	return periodic
}

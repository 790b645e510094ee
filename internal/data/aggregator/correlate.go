package aggregator

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/penwyp/go-ru-analyzer/internal/core/config"
	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/validator"
)

// kindPartners maps an event kind to the kinds it may pair with across
// units. The table is symmetric: the protection unit's state changes pair
// with the interface unit's errors, interface state changes with mode
// changes, and relay traffic with operator actions.
var kindPartners = map[model.EventKind][]model.EventKind{
	model.KindProtectionState: {model.KindError},
	model.KindError:           {model.KindProtectionState},
	model.KindInterfaceState:  {model.KindModeChange},
	model.KindModeChange:      {model.KindInterfaceState},
	model.KindRelayEvent:      {model.KindUserAction},
	model.KindUserAction:      {model.KindRelayEvent},
}

// Correlator compares two independently validated streams, conventionally
// the protection unit as primary and the interface unit as secondary. It
// never mutates either stream and is deterministic for the same inputs.
type Correlator struct {
	cfg config.Config
}

func NewCorrelator(cfg config.Config) *Correlator {
	return &Correlator{cfg: cfg}
}

// Correlate builds the full dual-stream report: speed agreement, event
// pairing, and time coverage consistency.
func (c *Correlator) Correlate(primary, secondary *validator.Stream) *model.CorrelationReport {
	return &model.CorrelationReport{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Speed:       c.correlateSpeeds(primary, secondary),
		Events:      c.correlateEvents(primary, secondary),
		Consistency: c.consistency(primary, secondary),
	}
}

// correlateSpeeds pairs every primary periodic sample with the nearest
// secondary sample in time. Both streams are chronological, so one forward
// cursor over the secondary suffices. The cursor advances only on a strict
// improvement, which keeps the earlier sample on an exact tie.
func (c *Correlator) correlateSpeeds(primary, secondary *validator.Stream) *model.SpeedCorrelation {
	pri := primary.Periodic()
	sec := secondary.Periodic()
	corr := &model.SpeedCorrelation{}

	cursor := 0
	var diffs []float64
	for _, p := range pri {
		if len(sec) == 0 {
			corr.UnmatchedPrimary++
			continue
		}
		for cursor+1 < len(sec) &&
			absSeconds(sec[cursor+1].Timestamp, p.Timestamp) < absSeconds(sec[cursor].Timestamp, p.Timestamp) {
			cursor++
		}
		nearest := sec[cursor]
		if absSeconds(nearest.Timestamp, p.Timestamp) > c.cfg.TimeTolerance {
			corr.UnmatchedPrimary++
			continue
		}

		match := model.SpeedMatch{
			Time:           p.Timestamp,
			PrimarySpeed:   p.SpeedKmh(),
			SecondarySpeed: nearest.SpeedKmh(),
			Difference:     nearest.SpeedKmh() - p.SpeedKmh(),
		}
		corr.Matches = append(corr.Matches, match)
		diffs = append(diffs, match.Difference)
		if math.Abs(match.Difference) > c.cfg.SpeedTolerance {
			corr.AbnormalPoints = append(corr.AbnormalPoints, match)
		}
	}

	corr.MatchCount = len(corr.Matches)
	if len(diffs) > 0 {
		corr.AvgDifference = mean(diffs)
		corr.StdDifference = stdDev(diffs)
		for _, d := range diffs {
			if math.Abs(d) > corr.MaxDifference {
				corr.MaxDifference = math.Abs(d)
			}
		}
	}
	return corr
}

// classifiedEvent carries one stream's event record with its decoded class,
// in record order.
type classifiedEvent struct {
	detail model.EventDetail
	kind   model.EventKind
	at     time.Time
}

func classifyStream(stream *validator.Stream) []classifiedEvent {
	family := stream.Family()
	var events []classifiedEvent
	for _, rec := range stream.Records() {
		if family.IsPeriodic(rec.Type) {
			continue
		}
		class, err := family.Classify(rec)
		if err != nil {
			continue
		}
		events = append(events, classifiedEvent{
			detail: eventDetail(rec, class),
			kind:   class.Kind,
			at:     rec.Timestamp,
		})
	}
	return events
}

// correlateEvents pairs each primary event with the first compatible
// secondary event inside the time tolerance. A secondary event may serve
// several primaries; it counts as unmatched only when no primary ever
// paired with it.
func (c *Correlator) correlateEvents(primary, secondary *validator.Stream) *model.EventCorrelation {
	priEvents := classifyStream(primary)
	secEvents := classifyStream(secondary)

	corr := &model.EventCorrelation{}
	used := make(map[int]bool)

	for _, p := range priEvents {
		partners := kindPartners[p.kind]
		matched := false
		for si, s := range secEvents {
			diff := s.at.Sub(p.at).Seconds()
			if math.Abs(diff) > c.cfg.TimeTolerance {
				continue
			}
			if !kindCompatible(partners, s.kind) {
				continue
			}
			corr.Pairs = append(corr.Pairs, model.EventPair{
				Time:      p.at,
				Primary:   p.detail,
				Secondary: s.detail,
				TimeDiff:  diff,
			})
			used[si] = true
			matched = true
			break
		}
		if !matched {
			corr.UnmatchedPrimary = append(corr.UnmatchedPrimary, p.detail)
		}
	}

	for si, s := range secEvents {
		if !used[si] {
			corr.UnmatchedSecondary = append(corr.UnmatchedSecondary, s.detail)
		}
	}

	if len(priEvents) > 0 {
		corr.CorrelationRate = float64(len(corr.Pairs)) / float64(len(priEvents))
	}
	return corr
}

func kindCompatible(partners []model.EventKind, kind model.EventKind) bool {
	for _, k := range partners {
		if k == kind {
			return true
		}
	}
	return false
}

// consistency reports each stream's span, the raw overlap window, and any
// coverage gaps longer than the configured threshold.
func (c *Correlator) consistency(primary, secondary *validator.Stream) *model.ConsistencyReport {
	priSpan := streamSpan(primary)
	secSpan := streamSpan(secondary)

	report := &model.ConsistencyReport{
		PrimarySpan:   priSpan,
		SecondarySpan: secSpan,
		OverlapStart:  laterOf(priSpan.Start, secSpan.Start),
		OverlapEnd:    earlierOf(priSpan.End, secSpan.End),
		PrimaryGaps:   c.findGaps(primary),
		SecondaryGaps: c.findGaps(secondary),
	}
	return report
}

func streamSpan(stream *validator.Stream) model.TimeSpan {
	records := stream.Records()
	return model.TimeSpan{
		Start: records[0].Timestamp,
		End:   records[len(records)-1].Timestamp,
	}
}

func (c *Correlator) findGaps(stream *validator.Stream) []model.TimeGap {
	records := stream.Records()
	var gaps []model.TimeGap
	for i := 1; i < len(records); i++ {
		dt := records[i].Timestamp.Sub(records[i-1].Timestamp).Seconds()
		if dt > c.cfg.GapThreshold {
			gaps = append(gaps, model.TimeGap{
				Start:    records[i-1].Timestamp,
				End:      records[i].Timestamp,
				Duration: dt,
			})
		}
	}
	return gaps
}

func absSeconds(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Seconds())
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

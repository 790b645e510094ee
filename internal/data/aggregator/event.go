package aggregator

import (
	"fmt"

	"github.com/penwyp/go-ru-analyzer/internal/core/config"
	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/validator"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

const progressInterval = 100

// EventProcessor classifies a stream's event records and summarizes them.
// Progress, when set, is invoked every progressInterval records and once at
// the end, so long files can report classification progress.
type EventProcessor struct {
	cfg      config.Config
	Progress func(processed, total int)
}

func NewEventProcessor(cfg config.Config) *EventProcessor {
	return &EventProcessor{cfg: cfg}
}

// Process classifies every event record. A stream without events is a valid
// quiet trip, so zero counts are a result, not an error. Records that fail
// classification are counted and skipped; one bad payload never discards
// the rest of the file.
func (p *EventProcessor) Process(stream *validator.Stream) (*model.EventStats, error) {
	family := stream.Family()
	records := stream.Records()

	stats := &model.EventStats{Counts: make(map[string]int)}
	var classes []model.EventClass
	var times []int // indexes into records, parallel to classes

	for i, rec := range records {
		if p.Progress != nil && i > 0 && i%progressInterval == 0 {
			p.Progress(i, len(records))
		}
		if family.IsPeriodic(rec.Type) {
			continue
		}

		class, err := family.Classify(rec)
		if err != nil {
			stats.ParseFailures++
			util.LogDebug(fmt.Sprintf("Skip unclassifiable record %d: %v", i, err))
			continue
		}

		stats.Counts[class.Name]++
		stats.TotalEvents++
		if class.Emergency {
			stats.EmergencyBrakeCount++
		}
		if class.Shutdown {
			stats.ShutdownCount++
		}

		detail := eventDetail(rec, class)
		if class.Emergency || class.Shutdown {
			stats.ImportantEvents = append(stats.ImportantEvents, detail)
		}
		if class.Abnormal {
			stats.AbnormalEvents = append(stats.AbnormalEvents, detail)
		}

		classes = append(classes, class)
		times = append(times, i)
	}
	if p.Progress != nil {
		p.Progress(len(records), len(records))
	}

	if familyHasKind(family, model.KindModeChange) {
		stats.Modes = modeStats(records, classes, times)
	}
	if familyHasKind(family, model.KindError) {
		stats.Stability = stabilityStats(records, classes, times)
	}

	return stats, nil
}

func eventDetail(rec model.Record, class model.EventClass) model.EventDetail {
	return model.EventDetail{
		Time:        rec.Timestamp,
		Type:        class.Name,
		Code:        class.Code,
		Description: class.Description,
	}
}

func familyHasKind(family *model.Family, kind model.EventKind) bool {
	for _, spec := range family.Events {
		if spec.Kind == kind {
			return true
		}
	}
	return false
}

// modeStats reconstructs the operation mode history. The unit boots in
// initializing mode, so time before the first mode change accrues there.
func modeStats(records []model.Record, classes []model.EventClass, times []int) *model.ModeStats {
	stats := &model.ModeStats{Durations: make(map[string]float64)}
	if len(records) == 0 {
		return stats
	}

	current := "initializing"
	currentSince := records[0].Timestamp

	for i, class := range classes {
		if class.Kind != model.KindModeChange {
			continue
		}
		at := records[times[i]].Timestamp
		stats.Durations[current] += at.Sub(currentSince).Seconds()
		stats.Changes = append(stats.Changes, model.ModeChange{
			Time: at,
			From: current,
			To:   class.Description,
		})
		current = class.Description
		currentSince = at
	}

	last := records[len(records)-1].Timestamp
	stats.Durations[current] += last.Sub(currentSince).Seconds()
	stats.TotalChanges = len(stats.Changes)
	return stats
}

// stabilityStats summarizes error and restart behavior. The first startup
// is a normal power-on; each further startup is a restart.
func stabilityStats(records []model.Record, classes []model.EventClass, times []int) *model.StabilityStats {
	stats := &model.StabilityStats{}
	var errorTimes []float64

	startups := 0
	for i, class := range classes {
		switch class.Kind {
		case model.KindError:
			stats.ErrorCount++
			errorTimes = append(errorTimes, float64(records[times[i]].Timestamp.Unix()))
		case model.KindStartup:
			startups++
		}
	}
	if startups > 1 {
		stats.RestartCount = startups - 1
	}

	for i := 1; i < len(errorTimes); i++ {
		stats.ErrorIntervals = append(stats.ErrorIntervals, errorTimes[i]-errorTimes[i-1])
	}
	if len(stats.ErrorIntervals) > 0 {
		stats.AvgErrorInterval = mean(stats.ErrorIntervals)
		stats.MinErrorInterval = minOf(stats.ErrorIntervals)
	}
	return stats
}

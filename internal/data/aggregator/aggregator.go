package aggregator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/penwyp/go-ru-analyzer/internal/core/config"
	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/validator"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

// Aggregator runs the statistical processors over one validated stream and
// merges their sub-results into a single AnalysisResult. In strict mode the
// first processor failure aborts the run; in best-effort mode the failure is
// recorded under its section name and the remaining processors still run.
type Aggregator struct {
	cfg config.Config

	// Progress, when set, is handed to the event processor so callers can
	// surface classification progress on large files.
	Progress func(processed, total int)
}

func NewAggregator(cfg config.Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate produces the analysis result for stream. Each run gets a fresh
// id so results cached or exported from repeated runs over the same file
// stay distinguishable.
func (a *Aggregator) Aggregate(stream *validator.Stream) (*model.AnalysisResult, error) {
	records := stream.Records()
	result := &model.AnalysisResult{
		RunID:       uuid.New().String(),
		Unit:        stream.Family().Name,
		Header:      stream.Header(),
		RecordCount: stream.Len(),
		GeneratedAt: time.Now().UTC(),
	}
	if len(records) > 0 {
		result.TotalTime = records[len(records)-1].Timestamp.Sub(records[0].Timestamp).Seconds()
	}

	speed, err := NewSpeedProcessor(a.cfg).Process(stream)
	if err := a.section(result, "speed", err); err != nil {
		return nil, err
	}
	if speed != nil {
		result.Speed = speed
		result.MaxSpeed = speed.MaxSpeed
		result.AvgSpeed = speed.AvgSpeed
		result.OverspeedCount = speed.OverspeedCount
	}

	eventProc := NewEventProcessor(a.cfg)
	eventProc.Progress = a.Progress
	events, err := eventProc.Process(stream)
	if err := a.section(result, "events", err); err != nil {
		return nil, err
	}
	if events != nil {
		result.Events = events
		result.EmergencyBrakeCount = events.EmergencyBrakeCount
		result.ShutdownCount = events.ShutdownCount
	}

	if stream.Family().HasLocation {
		location, err := NewLocationProcessor(a.cfg).Process(stream)
		if err := a.section(result, "location", err); err != nil {
			return nil, err
		}
		if location != nil {
			result.Location = location
			result.TotalDistance = location.TotalDistance
		}
	}

	return result, nil
}

// section applies the error propagation policy for one processor. A nil err
// passes through; otherwise strict mode aborts and best-effort mode records
// the failure under name.
func (a *Aggregator) section(result *model.AnalysisResult, name string, err error) error {
	if err == nil {
		return nil
	}
	if !a.cfg.BestEffort {
		return err
	}
	util.LogWarn(fmt.Sprintf("Continuing without %s section: %v", name, err))
	if result.Errors == nil {
		result.Errors = make(map[string]string)
	}
	result.Errors[name] = err.Error()
	return nil
}

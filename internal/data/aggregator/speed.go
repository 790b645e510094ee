package aggregator

import (
	"fmt"
	"sort"

	"github.com/penwyp/go-ru-analyzer/internal/core/config"
	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/validator"
)

const (
	speedBinWidth = 20.0 // km/h per histogram band
	speedBinCount = 6    // bands below the open-ended top band
)

// SpeedProcessor computes speed statistics over a stream's periodic
// measurements.
type SpeedProcessor struct {
	cfg config.Config
}

func NewSpeedProcessor(cfg config.Config) *SpeedProcessor {
	return &SpeedProcessor{cfg: cfg}
}

// Process computes the speed section. A stream without periodic records has
// no speed data to summarize, which is an error: a headline of zeros would
// read as a stationary trip.
func (p *SpeedProcessor) Process(stream *validator.Stream) (*model.SpeedStats, error) {
	periodic := stream.Periodic()
	if len(periodic) == 0 {
		return nil, procErrorf("speed", "no speed records")
	}

	speeds := make([]float64, len(periodic))
	overspeed := 0
	for i, rec := range periodic {
		speeds[i] = rec.SpeedKmh()
		if speeds[i] > p.cfg.OverspeedThreshold {
			overspeed++
		}
	}

	return &model.SpeedStats{
		MaxSpeed:       maxOf(speeds),
		AvgSpeed:       mean(speeds),
		StdDev:         stdDev(speeds),
		OverspeedCount: overspeed,
		SampleCount:    len(speeds),
		Distribution:   speedHistogram(speeds),
		Acceleration:   p.acceleration(periodic),
		Events:         p.detectEvents(periodic, speeds),
	}, nil
}

// speedHistogram distributes samples into 20 km/h bands with an open-ended
// top band. Bands are lower-inclusive.
func speedHistogram(speeds []float64) []model.HistogramBin {
	bins := make([]model.HistogramBin, speedBinCount+1)
	for i := 0; i < speedBinCount; i++ {
		bins[i].Label = fmt.Sprintf("%d-%d", i*int(speedBinWidth), (i+1)*int(speedBinWidth))
	}
	bins[speedBinCount].Label = fmt.Sprintf("%d+", speedBinCount*int(speedBinWidth))

	for _, s := range speeds {
		idx := int(s / speedBinWidth)
		if idx < 0 {
			idx = 0
		}
		if idx > speedBinCount {
			idx = speedBinCount
		}
		bins[idx].Count++
	}
	return bins
}

// acceleration summarizes the speed derivative over consecutive periodic
// pairs. Deceleration statistics are positive magnitudes.
func (p *SpeedProcessor) acceleration(periodic []model.Record) *model.AccelerationStats {
	var accels, decels []float64
	pairs := 0
	for i := 1; i < len(periodic); i++ {
		dt := periodic[i].Timestamp.Sub(periodic[i-1].Timestamp).Seconds()
		if dt == 0 {
			continue
		}
		pairs++
		a := (periodic[i].SpeedKmh() - periodic[i-1].SpeedKmh()) / dt
		switch {
		case a > 0:
			accels = append(accels, a)
		case a < 0:
			decels = append(decels, -a)
		}
	}

	stats := &model.AccelerationStats{PairCount: pairs}
	if len(accels) > 0 {
		stats.MaxAccel = ptr(maxOf(accels))
		stats.AvgAccel = ptr(mean(accels))
	}
	if len(decels) > 0 {
		stats.MaxDecel = ptr(maxOf(decels))
		stats.AvgDecel = ptr(mean(decels))
	}
	return stats
}

// detectEvents scans the periodic sequence for driving anomalies: rapid
// speed changes, overspeed samples, and unstable stretches where the
// standard deviation over a sliding window exceeds the threshold.
func (p *SpeedProcessor) detectEvents(periodic []model.Record, speeds []float64) []model.SpeedEvent {
	var events []model.SpeedEvent

	for i, rec := range periodic {
		if speeds[i] > p.cfg.OverspeedThreshold {
			events = append(events, model.SpeedEvent{
				Time:  rec.Timestamp,
				Type:  model.SpeedEventOverspeed,
				Value: speeds[i],
				Speed: speeds[i],
			})
		}
		if i == 0 {
			continue
		}
		dt := rec.Timestamp.Sub(periodic[i-1].Timestamp).Seconds()
		if dt == 0 {
			continue
		}
		a := (speeds[i] - speeds[i-1]) / dt
		if a > p.cfg.RapidChange {
			events = append(events, model.SpeedEvent{
				Time:  rec.Timestamp,
				Type:  model.SpeedEventRapidAcceleration,
				Value: a,
				Speed: speeds[i],
			})
		} else if a < -p.cfg.RapidChange {
			events = append(events, model.SpeedEvent{
				Time:  rec.Timestamp,
				Type:  model.SpeedEventRapidDeceleration,
				Value: -a,
				Speed: speeds[i],
			})
		}
	}

	w := p.cfg.FluctuationWindow
	for i := 0; i+w <= len(speeds); i++ {
		sd := stdDev(speeds[i : i+w])
		if sd > p.cfg.FluctuationStdDev {
			events = append(events, model.SpeedEvent{
				Time:  periodic[i+w-1].Timestamp,
				Type:  model.SpeedEventFluctuation,
				Value: sd,
				Speed: speeds[i+w-1],
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
	return events
}

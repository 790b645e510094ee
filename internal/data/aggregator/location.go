package aggregator

import (
	"fmt"
	"math"

	"github.com/penwyp/go-ru-analyzer/internal/core/config"
	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/validator"
)

const locationBinWidthKm = 10

// LocationProcessor computes distance, elapsed time, and station transit
// statistics. It only makes sense for families whose periodic records carry
// a location word.
type LocationProcessor struct {
	cfg config.Config
}

func NewLocationProcessor(cfg config.Config) *LocationProcessor {
	return &LocationProcessor{cfg: cfg}
}

func (p *LocationProcessor) Process(stream *validator.Stream) (*model.LocationStats, error) {
	periodic := stream.Periodic()
	if len(periodic) == 0 {
		return nil, procErrorf("location", "no location records")
	}
	records := stream.Records()

	stats := &model.LocationStats{
		TotalDistance: model.LocationKm(periodic[len(periodic)-1].Location - periodic[0].Location),
		TotalTime:     records[len(records)-1].Timestamp.Sub(records[0].Timestamp).Seconds(),
		Distribution:  locationHistogram(periodic),
		StationTimes:  stationTransits(stream),
	}
	return stats, nil
}

// locationHistogram buckets periodic locations into fixed 10 km bands
// covering the traversed range. Chainage is signed (a trip can run behind
// the line's reference point), so bands are offset to the first location.
// Validation has established monotonicity, so the first and last records
// bound the range.
func locationHistogram(periodic []model.Record) []model.HistogramBin {
	minBand := locationBand(periodic[0].Location)
	maxBand := locationBand(periodic[len(periodic)-1].Location)
	counts := make([]int, maxBand-minBand+1)
	for _, rec := range periodic {
		idx := locationBand(rec.Location) - minBand
		if idx < 0 {
			idx = 0
		}
		if idx >= len(counts) {
			idx = len(counts) - 1
		}
		counts[idx]++
	}

	bins := make([]model.HistogramBin, len(counts))
	for i, count := range counts {
		band := minBand + i
		bins[i] = model.HistogramBin{
			Label: fmt.Sprintf("%d-%d", band*locationBinWidthKm, (band+1)*locationBinWidthKm),
			Count: count,
		}
	}
	return bins
}

// locationBand maps a raw location to its 10 km band index, rounding toward
// negative infinity so that -16 km lands in the -20..-10 band.
func locationBand(loc int32) int {
	return int(math.Floor(model.LocationKm(loc) / locationBinWidthKm))
}

// stationTransits derives station-to-station travel times from relay events
// whose payload decodes as a printable station identifier. Relay records
// carrying communication status codes fail that decode and are skipped, as
// is a repeated arrival at the station just recorded. The first observed
// transit for a station pair wins; later trips over the same pair do not
// overwrite it.
func stationTransits(stream *validator.Stream) map[string]float64 {
	family := stream.Family()
	transits := make(map[string]float64)

	var prevStation string
	var prevTime int64
	for _, rec := range stream.Records() {
		spec, ok := family.Events[rec.Type]
		if !ok || spec.Kind != model.KindRelayEvent {
			continue
		}
		station, ok := model.StationName(rec.Payload)
		if !ok {
			continue
		}
		if station == prevStation {
			continue
		}
		if prevStation != "" {
			key := prevStation + "->" + station
			if _, seen := transits[key]; !seen {
				transits[key] = float64(rec.Timestamp.Unix()-prevTime) / 60.0
			}
		}
		prevStation = station
		prevTime = rec.Timestamp.Unix()
	}
	return transits
}

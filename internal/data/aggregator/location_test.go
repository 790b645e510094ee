package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
)

func TestLocationProcessorDistanceAndHistogram(t *testing.T) {
	kmLocs := []float64{1, 4, 8, 11, 14, 18, 21, 24, 25, 26}
	records := []model.Record{event(model.ATPProtectionState, 0, 0)}
	for i, km := range kmLocs {
		records = append(records, atpPeriodic(float64(10+i*10), int32(km*100000), 2500))
	}
	records = append(records, event(model.ATPProtectionState, 110, 0))
	stream := mustStream(t, model.ATP, testConfig(), records)

	stats, err := NewLocationProcessor(testConfig()).Process(stream)
	require.NoError(t, err)

	assert.InDelta(t, 25.0, stats.TotalDistance, 1e-9)
	assert.InDelta(t, 110.0, stats.TotalTime, 1e-9)

	require.Len(t, stats.Distribution, 3)
	assert.Equal(t, "0-10", stats.Distribution[0].Label)
	assert.Equal(t, "10-20", stats.Distribution[1].Label)
	assert.Equal(t, "20-30", stats.Distribution[2].Label)
	assert.Equal(t, 3, stats.Distribution[0].Count)
	assert.Equal(t, 3, stats.Distribution[1].Count)
	assert.Equal(t, 4, stats.Distribution[2].Count)

	assert.Empty(t, stats.StationTimes)
}

func TestLocationProcessorNegativeChainage(t *testing.T) {
	t.Run("entirely_negative", func(t *testing.T) {
		// A trip recorded behind the line's reference point: -20 to -16 km.
		records := []model.Record{
			atpPeriodic(0, -2000000, 2500),
			atpPeriodic(10, -1800000, 2500),
			atpPeriodic(20, -1600000, 2500),
		}
		stream := mustStream(t, model.ATP, testConfig(), records)

		stats, err := NewLocationProcessor(testConfig()).Process(stream)
		require.NoError(t, err)

		assert.InDelta(t, 4.0, stats.TotalDistance, 1e-9)
		require.Len(t, stats.Distribution, 1)
		assert.Equal(t, "-20--10", stats.Distribution[0].Label)
		assert.Equal(t, 3, stats.Distribution[0].Count)
	})

	t.Run("crossing_zero", func(t *testing.T) {
		records := []model.Record{
			atpPeriodic(0, -500000, 2500), // -5 km
			atpPeriodic(10, 300000, 2500), // 3 km
		}
		stream := mustStream(t, model.ATP, testConfig(), records)

		stats, err := NewLocationProcessor(testConfig()).Process(stream)
		require.NoError(t, err)

		require.Len(t, stats.Distribution, 2)
		assert.Equal(t, "-10-0", stats.Distribution[0].Label)
		assert.Equal(t, "0-10", stats.Distribution[1].Label)
		assert.Equal(t, 1, stats.Distribution[0].Count)
		assert.Equal(t, 1, stats.Distribution[1].Count)
	})
}

func TestLocationProcessorStationTransits(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTimeGap = 3600

	records := []model.Record{
		atpPeriodic(0, 0, 2500),
		event(model.ATPRelayEvent, 60, []byte("ALPHA---")...),
		event(model.ATPRelayEvent, 120, 3), // status code, not a station
		event(model.ATPRelayEvent, 660, []byte("BRAVO")...),
		event(model.ATPRelayEvent, 700, []byte("BRAVO")...), // repeated arrival
		event(model.ATPRelayEvent, 1000, []byte("CHARLIE")...),
		event(model.ATPRelayEvent, 1060, []byte("ALPHA")...),
		event(model.ATPRelayEvent, 1080, []byte("BRAVO")...), // pair seen before
		atpPeriodic(1100, 100000, 2500),
	}
	stream := mustStream(t, model.ATP, cfg, records)

	stats, err := NewLocationProcessor(cfg).Process(stream)
	require.NoError(t, err)

	transits := stats.StationTimes
	require.Len(t, transits, 3)
	assert.InDelta(t, 10.0, transits["ALPHA->BRAVO"], 1e-9)
	assert.InDelta(t, 340.0/60.0, transits["BRAVO->CHARLIE"], 1e-9)
	assert.InDelta(t, 1.0, transits["CHARLIE->ALPHA"], 1e-9)
	// The 1060->1080 leg repeats the ALPHA->BRAVO pair; the first transit
	// time stands, not the 20 s rerun.
	assert.InDelta(t, 10.0, transits["ALPHA->BRAVO"], 1e-9)

	_, hasReverse := transits["BRAVO->ALPHA"]
	assert.False(t, hasReverse)
}

func TestLocationProcessorNoLocationRecords(t *testing.T) {
	records := []model.Record{
		event(model.ATPProtectionState, 0, 0),
		event(model.ATPProtectionState, 10, 1),
	}
	stream := mustStream(t, model.ATP, testConfig(), records)

	stats, err := NewLocationProcessor(testConfig()).Process(stream)
	assert.Nil(t, stats)

	var procErr *Error
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "location", procErr.Processor)
	assert.Equal(t, "location analysis failed: no location records", err.Error())
}

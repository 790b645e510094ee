package model

import "time"

// HistogramBin is one band of a value distribution. Bins are ordered, so
// results keep a slice rather than a map.
type HistogramBin struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SpeedEventType tags anomalies found by the speed event scan.
type SpeedEventType string

const (
	SpeedEventRapidAcceleration SpeedEventType = "rapid_acceleration"
	SpeedEventRapidDeceleration SpeedEventType = "rapid_deceleration"
	SpeedEventOverspeed         SpeedEventType = "over_speed"
	SpeedEventFluctuation       SpeedEventType = "speed_fluctuation"
)

// SpeedEvent is one detected speed anomaly. Value is the measure that
// triggered it: the acceleration in km/h/s, the speed in km/h, or the
// window standard deviation.
type SpeedEvent struct {
	Time  time.Time      `json:"time"`
	Type  SpeedEventType `json:"type"`
	Value float64        `json:"value"`
	Speed float64        `json:"speed,omitempty"`
}

// AccelerationStats summarizes the speed derivative over consecutive
// periodic measurement pairs. Pairs with a zero time delta are excluded
// rather than treated as zero acceleration. Every field is a pointer:
// a statistic whose subset is empty is absent, never zero, so an
// all-coasting trip cannot masquerade as one with measured braking.
type AccelerationStats struct {
	MaxAccel  *float64 `json:"max_acceleration,omitempty"`
	MaxDecel  *float64 `json:"max_deceleration,omitempty"`
	AvgAccel  *float64 `json:"avg_acceleration,omitempty"`
	AvgDecel  *float64 `json:"avg_deceleration,omitempty"`
	PairCount int      `json:"pair_count"`
}

// SpeedStats is the speed processor's sub-result. All speeds are km/h.
type SpeedStats struct {
	MaxSpeed       float64            `json:"max_speed"`
	AvgSpeed       float64            `json:"avg_speed"`
	StdDev         float64            `json:"std_dev"`
	OverspeedCount int                `json:"over_speed_count"`
	SampleCount    int                `json:"sample_count"`
	Distribution   []HistogramBin     `json:"distribution"`
	Acceleration   *AccelerationStats `json:"acceleration,omitempty"`
	Events         []SpeedEvent       `json:"events,omitempty"`
}

// EventDetail is one classified event surfaced in a result list.
type EventDetail struct {
	Time        time.Time `json:"time"`
	Type        string    `json:"type"`
	Code        int       `json:"code"`
	Description string    `json:"description"`
}

// ModeChange records one operation mode transition of the interface unit.
type ModeChange struct {
	Time time.Time `json:"time"`
	From string    `json:"from"`
	To   string    `json:"to"`
}

// ModeStats summarizes the interface unit's operation mode history.
// Durations holds seconds spent in each mode, keyed by mode name.
type ModeStats struct {
	Changes      []ModeChange       `json:"changes"`
	Durations    map[string]float64 `json:"durations"`
	TotalChanges int                `json:"total_changes"`
}

// StabilityStats counts error and restart events of the interface unit.
// Intervals are seconds between consecutive error events; both interval
// statistics are zero when fewer than two errors occurred.
type StabilityStats struct {
	ErrorCount       int       `json:"error_count"`
	RestartCount     int       `json:"restart_count"`
	AvgErrorInterval float64   `json:"avg_error_interval"`
	MinErrorInterval float64   `json:"min_error_interval"`
	ErrorIntervals   []float64 `json:"error_intervals,omitempty"`
}

// EventStats is the event processor's sub-result.
type EventStats struct {
	Counts              map[string]int  `json:"event_counts"`
	TotalEvents         int             `json:"total_events"`
	EmergencyBrakeCount int             `json:"emergency_brake_count"`
	ShutdownCount       int             `json:"shutdown_count"`
	ImportantEvents     []EventDetail   `json:"important_events"`
	AbnormalEvents      []EventDetail   `json:"abnormal_events"`
	ParseFailures       int             `json:"parse_failures,omitempty"`
	Modes               *ModeStats      `json:"modes,omitempty"`
	Stability           *StabilityStats `json:"stability,omitempty"`
}

// LocationStats is the location processor's sub-result. Distances are km,
// TotalTime is seconds, StationTimes maps "A->B" to transit minutes.
type LocationStats struct {
	TotalDistance float64            `json:"total_distance"`
	TotalTime     float64            `json:"total_time"`
	Distribution  []HistogramBin     `json:"distribution"`
	StationTimes  map[string]float64 `json:"station_times"`
}

// AnalysisResult is the aggregate output of one analysis run. The headline
// scalars duplicate values from the sub-results for consumers that only
// want the trip summary. Immutable once built. In best-effort aggregation
// a failed processor leaves its sub-result nil and its failure in Errors.
type AnalysisResult struct {
	RunID       string    `json:"run_id"`
	File        string    `json:"file,omitempty"`
	Unit        string    `json:"unit"`
	Header      Header    `json:"header"`
	RecordCount int       `json:"record_count"`
	GeneratedAt time.Time `json:"generated_at"`

	MaxSpeed            float64 `json:"max_speed"`
	AvgSpeed            float64 `json:"avg_speed"`
	TotalDistance       float64 `json:"total_distance"`
	TotalTime           float64 `json:"total_time"`
	OverspeedCount      int     `json:"over_speed_count"`
	EmergencyBrakeCount int     `json:"emergency_brake_count"`
	ShutdownCount       int     `json:"shutdown_count"`

	Speed    *SpeedStats    `json:"speed_stats,omitempty"`
	Events   *EventStats    `json:"event_stats,omitempty"`
	Location *LocationStats `json:"location_stats,omitempty"`

	Errors map[string]string `json:"errors,omitempty"`
}

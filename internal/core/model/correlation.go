package model

import "time"

// SpeedMatch pairs one primary speed sample with its nearest-in-time
// secondary sample. Difference is signed, secondary minus primary, km/h.
type SpeedMatch struct {
	Time           time.Time `json:"time"`
	PrimarySpeed   float64   `json:"primary_speed"`
	SecondarySpeed float64   `json:"secondary_speed"`
	Difference     float64   `json:"difference"`
}

// SpeedCorrelation reports how closely the two units' speed measurements
// track each other. AbnormalPoints holds the matches whose absolute
// difference exceeded the configured speed tolerance.
type SpeedCorrelation struct {
	AvgDifference    float64      `json:"avg_difference"`
	MaxDifference    float64      `json:"max_difference"`
	StdDifference    float64      `json:"std_difference"`
	MatchCount       int          `json:"match_count"`
	UnmatchedPrimary int          `json:"unmatched_primary"`
	Matches          []SpeedMatch `json:"matches,omitempty"`
	AbnormalPoints   []SpeedMatch `json:"abnormal_points"`
}

// EventPair is one primary event matched to a compatible secondary event.
// TimeDiff is signed seconds, secondary minus primary.
type EventPair struct {
	Time      time.Time   `json:"time"`
	Primary   EventDetail `json:"primary"`
	Secondary EventDetail `json:"secondary"`
	TimeDiff  float64     `json:"time_diff"`
}

// EventCorrelation reports matched and unmatched events between the two
// streams. CorrelationRate is matched over total primary events, exactly
// zero when the primary stream carried no events.
type EventCorrelation struct {
	Pairs              []EventPair   `json:"pairs"`
	UnmatchedPrimary   []EventDetail `json:"unmatched_primary"`
	UnmatchedSecondary []EventDetail `json:"unmatched_secondary"`
	CorrelationRate    float64       `json:"correlation_rate"`
}

// TimeSpan is the closed interval covered by one stream's records.
type TimeSpan struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TimeGap is an interval between consecutive records exceeding the gap
// threshold, indicating missing data. Duration is seconds.
type TimeGap struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration float64   `json:"duration"`
}

// ConsistencyReport compares the two streams' time coverage. The overlap
// window is raw: OverlapStart after OverlapEnd means the streams never
// overlapped.
type ConsistencyReport struct {
	PrimarySpan   TimeSpan  `json:"primary_span"`
	SecondarySpan TimeSpan  `json:"secondary_span"`
	OverlapStart  time.Time `json:"overlap_start"`
	OverlapEnd    time.Time `json:"overlap_end"`
	PrimaryGaps   []TimeGap `json:"primary_gaps"`
	SecondaryGaps []TimeGap `json:"secondary_gaps"`
}

// CorrelationReport is the full output of one dual-stream correlation run.
// Read-only once built.
type CorrelationReport struct {
	RunID         string             `json:"run_id"`
	GeneratedAt   time.Time          `json:"generated_at"`
	PrimaryFile   string             `json:"primary_file,omitempty"`
	SecondaryFile string             `json:"secondary_file,omitempty"`
	Speed         *SpeedCorrelation  `json:"speed_correlation"`
	Events        *EventCorrelation  `json:"event_correlation"`
	Consistency   *ConsistencyReport `json:"system_consistency"`
}

package formatter

import (
	"fmt"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

// SummaryFormatter writes the full per-recording report: headline figures,
// every sub-result section, and the failures of a best-effort run.
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(results []*model.AnalysisResult) error {
	fmt.Println(util.FormatHeaderTitle("Recording Analysis Summary"))
	fmt.Println(util.FormatSectionSeparator())

	if len(results) == 0 {
		fmt.Println("No recordings analyzed")
		fmt.Println(util.FormatSectionSeparator())
		return nil
	}

	for i, r := range results {
		if i > 0 {
			fmt.Println(util.FormatSectionSeparator())
		}
		f.formatResult(r)
	}

	fmt.Println(util.FormatSectionSeparator())
	return nil
}

func (f *SummaryFormatter) formatResult(r *model.AnalysisResult) {
	tp := util.GetTimeProvider()

	fmt.Printf("File: %s    Unit: %s\n", displayFile(r), r.Unit)
	fmt.Printf("Run:  %s\n", r.RunID)
	if r.Header.TrainNo != "" || r.Header.DriverID != "" {
		fmt.Printf("Train: %s    Driver: %s    Vehicle: %s    Shift: %s\n",
			orDash(r.Header.TrainNo), orDash(r.Header.DriverID),
			orDash(r.Header.VehicleID), orDash(r.Header.WorkShift))
	}
	if !r.Header.Date.IsZero() {
		fmt.Printf("Recorded: %s\n", tp.Format(r.Header.Date, "2006-01-02"))
	}
	fmt.Printf("Records: %s    Duration: %s\n",
		formatCount(r.RecordCount), util.FormatSeconds(r.TotalTime))
	fmt.Println()

	if r.Speed != nil {
		f.formatSpeed(r.Speed, tp)
	}
	if r.Events != nil {
		f.formatEvents(r.Events, tp)
	}
	if r.Location != nil {
		f.formatLocation(r.Location)
	}
	if len(r.Errors) > 0 {
		fmt.Println(util.FormatWarnTitle("Failed Sections:"))
		for _, name := range sortedKeys(r.Errors) {
			fmt.Printf("  %s: %s\n", name, util.FormatAlertText(r.Errors[name]))
		}
		fmt.Println()
	}
}

func (f *SummaryFormatter) formatSpeed(s *model.SpeedStats, tp *util.TimeProvider) {
	fmt.Println(util.FormatDataTitle("Speed:"))
	fmt.Printf("  Max: %s    Avg: %s    StdDev: %.1f    Samples: %s\n",
		util.FormatSpeed(s.MaxSpeed), util.FormatSpeed(s.AvgSpeed),
		s.StdDev, formatCount(s.SampleCount))

	overspeed := fmt.Sprintf("%d", s.OverspeedCount)
	if s.OverspeedCount > 0 {
		overspeed = util.FormatAlertText(overspeed)
	}
	fmt.Printf("  Overspeed samples: %s\n", overspeed)

	if a := s.Acceleration; a != nil {
		fmt.Printf("  Acceleration pairs: %d\n", a.PairCount)
		if a.MaxAccel != nil {
			fmt.Printf("    Max accel: %.2f km/h/s    Avg accel: %.2f km/h/s\n", *a.MaxAccel, *a.AvgAccel)
		}
		if a.MaxDecel != nil {
			fmt.Printf("    Max decel: %.2f km/h/s    Avg decel: %.2f km/h/s\n", *a.MaxDecel, *a.AvgDecel)
		}
	}

	fmt.Println("  Distribution:")
	for _, bin := range s.Distribution {
		fmt.Printf("    %-8s %s\n", bin.Label, formatCount(bin.Count))
	}

	if len(s.Events) > 0 {
		fmt.Printf("  Anomalies (%d):\n", len(s.Events))
		for _, ev := range s.Events {
			fmt.Printf("    %s  %-18s %.1f\n", tp.Format(ev.Time, "15:04:05"), ev.Type, ev.Value)
		}
	}
	fmt.Println()
}

func (f *SummaryFormatter) formatEvents(e *model.EventStats, tp *util.TimeProvider) {
	fmt.Println(util.FormatDataTitle("Events:"))
	fmt.Printf("  Total: %s\n", formatCount(e.TotalEvents))
	for _, name := range sortedKeys(e.Counts) {
		fmt.Printf("    %-26s %s\n", name, formatCount(e.Counts[name]))
	}

	brakes := fmt.Sprintf("%d", e.EmergencyBrakeCount)
	if e.EmergencyBrakeCount > 0 {
		brakes = util.FormatAlertText(brakes)
	}
	fmt.Printf("  Emergency brakes: %s    Shutdowns: %d\n", brakes, e.ShutdownCount)
	if e.ParseFailures > 0 {
		fmt.Printf("  Unclassifiable records: %s\n", util.FormatAlertText(fmt.Sprintf("%d", e.ParseFailures)))
	}

	if len(e.ImportantEvents) > 0 {
		fmt.Println("  Important:")
		for _, ev := range e.ImportantEvents {
			fmt.Printf("    %s  %s: %s\n", tp.Format(ev.Time, "15:04:05"), ev.Type, ev.Description)
		}
	}

	if m := e.Modes; m != nil {
		fmt.Printf("  Mode changes: %d\n", m.TotalChanges)
		for _, mode := range sortedKeys(m.Durations) {
			fmt.Printf("    %-20s %s\n", mode, util.FormatSeconds(m.Durations[mode]))
		}
	}

	if st := e.Stability; st != nil {
		fmt.Printf("  Errors: %d    Restarts: %d\n", st.ErrorCount, st.RestartCount)
		if len(st.ErrorIntervals) > 0 {
			fmt.Printf("    Error interval avg: %s    min: %s\n",
				util.FormatSeconds(st.AvgErrorInterval), util.FormatSeconds(st.MinErrorInterval))
		}
	}
	fmt.Println()
}

func (f *SummaryFormatter) formatLocation(l *model.LocationStats) {
	fmt.Println(util.FormatDataTitle("Location:"))
	fmt.Printf("  Distance: %s    Time: %s\n",
		util.FormatDistance(l.TotalDistance), util.FormatSeconds(l.TotalTime))

	fmt.Println("  Distribution:")
	for _, bin := range l.Distribution {
		fmt.Printf("    %-8s %s\n", bin.Label, formatCount(bin.Count))
	}

	if len(l.StationTimes) > 0 {
		fmt.Println("  Station transits:")
		for _, leg := range sortedKeys(l.StationTimes) {
			fmt.Printf("    %-24s %s\n", leg, util.FormatMinutes(l.StationTimes[leg]))
		}
	}
	fmt.Println()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

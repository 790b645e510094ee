package formatter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(results []*model.AnalysisResult) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	headers := []string{
		"File", "Unit", "Train", "Driver", "Records",
		"Max Speed (km/h)", "Avg Speed (km/h)", "Distance (km)", "Duration (s)",
		"Overspeed", "Emergency Brakes", "Shutdowns", "Errors",
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, r := range results {
		record := []string{
			displayFile(r),
			r.Unit,
			r.Header.TrainNo,
			r.Header.DriverID,
			fmt.Sprintf("%d", r.RecordCount),
			fmt.Sprintf("%.1f", r.MaxSpeed),
			fmt.Sprintf("%.1f", r.AvgSpeed),
			fmt.Sprintf("%.2f", r.TotalDistance),
			fmt.Sprintf("%.1f", r.TotalTime),
			fmt.Sprintf("%d", r.OverspeedCount),
			fmt.Sprintf("%d", r.EmergencyBrakeCount),
			fmt.Sprintf("%d", r.ShutdownCount),
			strings.Join(sortedKeys(r.Errors), ";"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

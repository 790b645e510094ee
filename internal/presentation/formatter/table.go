package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{
			"File", "Unit", "Train", "Records", "Max Speed",
			"Avg Speed", "Distance", "Duration", "Overspeed", "E-Brake",
		},
	}
}

func (f *TableFormatter) Format(results []*model.AnalysisResult) error {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = f.row(r)
	}
	totals := f.totalRow(results)

	widths := f.calculateColumnWidths(rows, totals)

	f.printBorder(widths, "top")
	f.printRow(f.headers, widths)
	f.printBorder(widths, "middle")
	for _, row := range rows {
		f.printRow(row, widths)
	}
	f.printBorder(widths, "middle")
	f.printRow(totals, widths)
	f.printBorder(widths, "bottom")

	return nil
}

func (f *TableFormatter) row(r *model.AnalysisResult) []string {
	train := r.Header.TrainNo
	if train == "" {
		train = "-"
	}
	return []string{
		displayFile(r),
		r.Unit,
		train,
		formatCount(r.RecordCount),
		util.FormatSpeed(r.MaxSpeed),
		util.FormatSpeed(r.AvgSpeed),
		util.FormatDistance(r.TotalDistance),
		formatDuration(r.TotalTime),
		formatCount(r.OverspeedCount),
		formatCount(r.EmergencyBrakeCount),
	}
}

// totalRow sums the additive columns. Maximum speed keeps the fleet-wide
// maximum; an average of averages would mislead, so that cell stays empty.
func (f *TableFormatter) totalRow(results []*model.AnalysisResult) []string {
	var records, overspeed, brakes int
	var distance, duration, maxSpeed float64
	for _, r := range results {
		records += r.RecordCount
		overspeed += r.OverspeedCount
		brakes += r.EmergencyBrakeCount
		distance += r.TotalDistance
		duration += r.TotalTime
		if r.MaxSpeed > maxSpeed {
			maxSpeed = r.MaxSpeed
		}
	}
	return []string{
		"Total",
		"",
		"",
		formatCount(records),
		util.FormatSpeed(maxSpeed),
		"",
		util.FormatDistance(distance),
		formatDuration(duration),
		formatCount(overspeed),
		formatCount(brakes),
	}
}

func (f *TableFormatter) calculateColumnWidths(rows [][]string, totals []string) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, row := range rows {
		for i, value := range row {
			if w := util.GetDisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i, value := range totals {
		if w := util.GetDisplayWidth(value); w > widths[i] {
			widths[i] = w
		}
	}
	for i := range widths {
		if widths[i] < 6 {
			widths[i] = 6
		}
	}
	return widths
}

func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	fmt.Print(left)
	for i, width := range widths {
		fmt.Print(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			fmt.Print(middle)
		}
	}
	fmt.Println(right)
}

// printRow prints one row. The first three columns hold identifiers and are
// left-aligned; the numeric columns are right-aligned.
func (f *TableFormatter) printRow(values []string, widths []int) {
	fmt.Print("│")
	for i, value := range values {
		if i <= 2 {
			fmt.Printf(" %s │", util.PadRight(value, widths[i]))
		} else {
			gap := widths[i] - util.GetDisplayWidth(value)
			if gap < 0 {
				gap = 0
			}
			fmt.Printf(" %s%s │", strings.Repeat(" ", gap), value)
		}
	}
	fmt.Println()
}

func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, digit)
	}
	return string(result)
}

func formatDuration(seconds float64) string {
	return util.FormatDuration(time.Duration(seconds * float64(time.Second)))
}

package formatter

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
)

func TestNewCSVFormatter(t *testing.T) {
	formatter := NewCSVFormatter()
	if formatter == nil {
		t.Fatal("NewCSVFormatter returned nil")
	}
}

func TestCSVFormatterFormat(t *testing.T) {
	degraded := sampleResult()
	degraded.File = "/data/depot/shift2.ru"
	degraded.Errors = map[string]string{
		"speed":    "speed analysis failed: no speed records",
		"location": "location analysis failed: no location records",
	}

	output := captureStdout(t, func() error {
		return NewCSVFormatter().Format([]*model.AnalysisResult{sampleResult(), degraded})
	})

	records, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v\nGot:\n%s", err, output)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}

	header := records[0]
	if header[0] != "File" || header[5] != "Max Speed (km/h)" || header[12] != "Errors" {
		t.Errorf("unexpected header: %v", header)
	}

	row := records[1]
	checks := map[int]string{
		0:  "shift1.ru",
		1:  "atp",
		2:  "G1001",
		3:  "9527",
		4:  "1234",
		5:  "95.4",
		6:  "88.1",
		7:  "42.50",
		8:  "3600.0",
		9:  "2",
		10: "1",
		11: "1",
		12: "",
	}
	for i, want := range checks {
		if row[i] != want {
			t.Errorf("row field %d = %q, want %q", i, row[i], want)
		}
	}

	if records[2][12] != "location;speed" {
		t.Errorf("errors field = %q, want sorted section names", records[2][12])
	}
}

func TestCSVFormatterEmpty(t *testing.T) {
	output := captureStdout(t, func() error {
		return NewCSVFormatter().Format(nil)
	})

	records, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
}

package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/decoder"
)

var testHeader = model.Header{
	WorkShift: "WSH001",
	TrainNo:   "TR1234",
	DriverID:  "DRV042",
	VehicleID: "V1234",
	Date:      time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
}

func testRecords() []model.Record {
	base := time.Date(2025, 8, 15, 6, 0, 0, 0, time.UTC)
	records := make([]model.Record, 0, 6)
	for i := 0; i < 5; i++ {
		records = append(records, model.Record{
			Type:      model.ATPPeriodic,
			Timestamp: base.Add(time.Duration(i) * 10 * time.Second),
			Location:  int32(i) * 13890,
			Speed:     1389,
		})
	}
	records = append(records, model.Record{
		Type:      model.ATPProtectionState,
		Timestamp: base.Add(time.Minute),
		Payload:   []byte{2},
	})
	return records
}

// writeRecording encodes a recording file at path, gzip-compressing it when
// the path ends in .gz.
func writeRecording(t *testing.T, path string, header model.Header, records []model.Record, family *model.Family) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := decoder.NewWriter(file, family)
	if filepath.Ext(path) == ".gz" {
		gz := gzip.NewWriter(file)
		defer func() { require.NoError(t, gz.Close()) }()
		w = decoder.NewWriter(gz, family)
	}

	require.NoError(t, w.WriteHeader(header))
	for _, rec := range records {
		require.NoError(t, w.WriteRecord(rec))
	}
}

func TestNewParser(t *testing.T) {
	p := NewParser(model.ATP, 4)

	assert.NotNil(t, p)
	assert.Equal(t, 4, p.concurrency)
	assert.Same(t, model.ATP, p.family)
	assert.Empty(t, p.cache)
}

func TestParseFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "shift.ru")
	records := testRecords()
	writeRecording(t, path, testHeader, records, model.ATP)

	p := NewParser(model.ATP, 4)
	header, got, err := p.ParseFile(path)

	require.NoError(t, err)
	assert.Equal(t, testHeader, header)
	assert.Equal(t, records, got)
}

func TestParseFileGzip(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "shift.ru.gz")
	records := testRecords()
	writeRecording(t, path, testHeader, records, model.ATP)

	p := NewParser(model.ATP, 4)
	header, got, err := p.ParseFile(path)

	require.NoError(t, err)
	assert.Equal(t, testHeader, header)
	assert.Equal(t, records, got)
}

func TestParseFileMMI(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "shift.ru")
	base := time.Date(2025, 8, 15, 6, 0, 0, 0, time.UTC)
	records := []model.Record{
		{Type: model.MMIStartup, Timestamp: base, Payload: []byte{1}},
		{Type: model.MMIPeriodic, Timestamp: base.Add(10 * time.Second), Speed: 2500},
		{Type: model.MMIModeChange, Timestamp: base.Add(20 * time.Second), Payload: []byte{1}},
	}
	writeRecording(t, path, testHeader, records, model.MMI)

	p := NewParser(model.MMI, 4)
	_, got, err := p.ParseFile(path)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int32(0), got[1].Location, "MMI periodic records carry no location")
	assert.Equal(t, int32(2500), got[1].Speed)
}

func TestParseFileCaching(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "shift.ru")
	writeRecording(t, path, testHeader, testRecords(), model.ATP)

	p := NewParser(model.ATP, 4)
	_, first, err := p.ParseFile(path)
	require.NoError(t, err)

	// Second parse must not touch the file again.
	require.NoError(t, os.Remove(path))
	_, second, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseFileNotFound(t *testing.T) {
	p := NewParser(model.ATP, 4)
	_, _, err := p.ParseFile("/path/that/does/not/exist.ru")
	assert.Error(t, err)
}

func TestParseFileTruncated(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "shift.ru")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0644))

	p := NewParser(model.ATP, 4)
	_, _, err := p.ParseFile(path)

	require.Error(t, err)
	var serr *decoder.StructuralError
	assert.ErrorAs(t, err, &serr)
}

func TestParseFileBadGzip(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "shift.ru.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip data"), 0644))

	p := NewParser(model.ATP, 4)
	_, _, err := p.ParseFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open gzip stream")
}

func TestParseFilesConcurrent(t *testing.T) {
	tempDir := t.TempDir()
	files := make([]string, 0, 6)
	for i := 0; i < 5; i++ {
		path := filepath.Join(tempDir, fmt.Sprintf("shift%d.ru", i))
		writeRecording(t, path, testHeader, testRecords(), model.ATP)
		files = append(files, path)
	}
	// One broken file among the good ones.
	broken := filepath.Join(tempDir, "broken.ru")
	require.NoError(t, os.WriteFile(broken, []byte("xx"), 0644))
	files = append(files, broken)

	p := NewParser(model.ATP, 3)
	seen := make(map[string]ParseResult)
	for result := range p.ParseFiles(files) {
		seen[result.File] = result
	}

	require.Len(t, seen, len(files))
	for _, path := range files[:5] {
		result := seen[path]
		require.NoError(t, result.Error)
		assert.Len(t, result.Records, 6)
	}
	assert.Error(t, seen[broken].Error)
}

func TestParseFilesEmptyList(t *testing.T) {
	p := NewParser(model.ATP, 2)
	results := p.ParseFiles(nil)

	count := 0
	for range results {
		count++
	}
	assert.Zero(t, count)
}

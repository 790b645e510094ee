// Package fixtures builds synthetic recording unit files for tests. The
// generated streams satisfy the default validation thresholds, so tests can
// run the full decode-validate-analyze pipeline against them.
package fixtures

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/decoder"
)

// RecordingGenerator writes recording files under a base directory.
type RecordingGenerator struct {
	baseDir string
}

// NewRecordingGenerator creates a generator rooted at baseDir.
func NewRecordingGenerator(baseDir string) *RecordingGenerator {
	return &RecordingGenerator{baseDir: baseDir}
}

// BaseDir returns the directory the generator writes into.
func (g *RecordingGenerator) BaseDir() string {
	return g.baseDir
}

// DefaultHeader returns header metadata matching the generated trips.
func DefaultHeader(date time.Time) model.Header {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return model.Header{
		WorkShift: day.Format("20060102"),
		TrainNo:   "G1001",
		DriverID:  "9527",
		VehicleID: "CRH380",
		Date:      day,
	}
}

// GenerateProtectionTrip writes a protection unit recording: count periodic
// records at a constant 90 km/h and 10 s spacing, one emergency brake event,
// and a final shutdown. Returns the file path.
func (g *RecordingGenerator) GenerateProtectionTrip(name string, start time.Time, count int) (string, error) {
	const speedCms = 2500 // 90.0 km/h

	records := make([]model.Record, 0, count+2)
	location := int32(0)
	for i := 0; i < count; i++ {
		records = append(records, model.Record{
			Type:      model.ATPPeriodic,
			Timestamp: start.Add(time.Duration(i*10) * time.Second),
			Location:  location,
			Speed:     speedCms,
		})
		location += speedCms * 10
	}

	last := start.Add(time.Duration((count-1)*10) * time.Second)
	records = append(records,
		model.Record{
			Type:      model.ATPProtectionState,
			Timestamp: last.Add(2 * time.Second),
			Payload:   []byte{2},
		},
		model.Record{
			Type:      model.ATPShutdown,
			Timestamp: last.Add(5 * time.Second),
			Payload:   shutdownPayload(location, 0),
		},
	)

	path := filepath.Join(g.baseDir, name)
	return path, g.WriteRecording(path, model.ATP, DefaultHeader(start), records)
}

// GenerateInterfaceTrip writes an interface unit recording: startup, a mode
// change into full supervision, count periodic speed samples at 90 km/h, one
// error, and a shutdown. Returns the file path.
func (g *RecordingGenerator) GenerateInterfaceTrip(name string, start time.Time, count int) (string, error) {
	const speedCms = 2500

	records := []model.Record{
		{Type: model.MMIStartup, Timestamp: start},
		{Type: model.MMIModeChange, Timestamp: start.Add(5 * time.Second), Payload: []byte{1}},
	}
	for i := 0; i < count; i++ {
		records = append(records, model.Record{
			Type:      model.MMIPeriodic,
			Timestamp: start.Add(time.Duration(10+i*10) * time.Second),
			Speed:     speedCms,
		})
	}

	last := start.Add(time.Duration(10+(count-1)*10) * time.Second)
	records = append(records,
		model.Record{Type: model.MMIError, Timestamp: last.Add(2 * time.Second), Payload: []byte{1}},
		model.Record{Type: model.MMIShutdown, Timestamp: last.Add(5 * time.Second)},
	)

	path := filepath.Join(g.baseDir, name)
	return path, g.WriteRecording(path, model.MMI, DefaultHeader(start), records)
}

// GenerateTruncated writes a structurally broken recording: the final record
// declares more payload bytes than the file holds.
func (g *RecordingGenerator) GenerateTruncated(name string, start time.Time) (string, error) {
	path := filepath.Join(g.baseDir, name)

	var buf bytes.Buffer
	w := decoder.NewWriter(&buf, model.ATP)
	if err := w.WriteHeader(DefaultHeader(start)); err != nil {
		return "", err
	}
	for i := 0; i < 3; i++ {
		rec := model.Record{
			Type:      model.ATPPeriodic,
			Timestamp: start.Add(time.Duration(i*10) * time.Second),
			Speed:     2500,
		}
		if err := w.WriteRecord(rec); err != nil {
			return "", err
		}
	}
	// Type, timestamp, and a payload length of 10 with only 2 bytes behind it.
	buf.WriteByte(byte(model.ATPProtectionState))
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(start.Add(40*time.Second).Unix())))
	buf.Write([]byte{10, 0xde, 0xad})

	return path, os.WriteFile(path, buf.Bytes(), 0644)
}

// WriteRecording encodes header and records for the family into path,
// gzip-compressing when the path ends in .gz.
func (g *RecordingGenerator) WriteRecording(path string, family *model.Family, header model.Header, records []model.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	bw := bufio.NewWriter(file)

	var gz *gzip.Writer
	var w *decoder.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz = gzip.NewWriter(bw)
		w = decoder.NewWriter(gz, family)
	} else {
		w = decoder.NewWriter(bw, family)
	}

	if err := w.WriteHeader(header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func shutdownPayload(locationCm, speedCms int32) []byte {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:], uint32(locationCm))
	binary.LittleEndian.PutUint32(payload[4:], uint32(speedCms))
	return payload
}

//go:build e2e
// +build e2e

package commands

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/testing/fixtures"
)

var e2eStart = time.Date(2025, 8, 15, 6, 0, 0, 0, time.UTC)

// TestAnalyzeCommandTableOutput runs the binary over a generated recording
// directory and checks the default table rendering.
func TestAnalyzeCommandTableOutput(t *testing.T) {
	tempDir := t.TempDir()
	generator := fixtures.NewRecordingGenerator(tempDir)

	_, err := generator.GenerateProtectionTrip("shift1.ru", e2eStart, 12)
	require.NoError(t, err)

	// Build the binary
	binaryPath := filepath.Join(t.TempDir(), "test-analyzer")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "..")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))

	cmd := exec.Command(binaryPath, tempDir, "--timezone", "UTC")
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	output, err = cmd.CombinedOutput()

	assert.NoError(t, err, "Command should succeed: %s", string(output))
	outputStr := string(output)

	assert.Contains(t, outputStr, "File", "Should contain table header")
	assert.Contains(t, outputStr, "Max Speed", "Should contain speed column")
	assert.Contains(t, outputStr, "shift1.ru", "Should show the recording file")
	assert.Contains(t, outputStr, "G1001", "Should show the train number")
	assert.Contains(t, outputStr, "90.0 km/h", "Should show the recorded speed")
	assert.Contains(t, outputStr, "Total", "Should show totals row")
}

// TestAnalyzeCommandOutputFormats checks every supported output format over
// the same recordings.
func TestAnalyzeCommandOutputFormats(t *testing.T) {
	tempDir := t.TempDir()
	generator := fixtures.NewRecordingGenerator(tempDir)

	_, err := generator.GenerateProtectionTrip("shift1.ru", e2eStart, 12)
	require.NoError(t, err)
	_, err = generator.GenerateProtectionTrip("shift2.ru", e2eStart.Add(2*time.Hour), 12)
	require.NoError(t, err)

	binaryPath := filepath.Join(t.TempDir(), "test-analyzer")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "..")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))

	testCases := []struct {
		name           string
		format         string
		expectedChecks []string
	}{
		{
			name:   "JSON format",
			format: "json",
			expectedChecks: []string{
				`"run_id"`,
				`"shift1.ru"`,
				`"max_speed"`,
				`"speed_stats"`,
			},
		},
		{
			name:   "CSV format",
			format: "csv",
			expectedChecks: []string{
				"File,Unit,Train,Driver,Records",
				"Max Speed (km/h)",
				"shift1.ru,atp,G1001,9527",
			},
		},
		{
			name:   "Summary format",
			format: "summary",
			expectedChecks: []string{
				"Recording Analysis Summary",
				"shift1.ru",
				"Speed:",
				"Events:",
			},
		},
		{
			name:   "Table format (default)",
			format: "table",
			expectedChecks: []string{
				"File",
				"Records",
				"shift1.ru",
				"shift2.ru",
				"Total",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tempDir, "--output", tc.format, "--timezone", "UTC")
			cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
			output, err := cmd.CombinedOutput()

			assert.NoError(t, err, "Command should succeed for %s format: %s", tc.format, string(output))
			outputStr := string(output)

			for _, expected := range tc.expectedChecks {
				assert.Contains(t, outputStr, expected, "Output should contain %s for %s format", expected, tc.format)
			}
		})
	}
}

// TestAnalyzeCommandJSONOutput decodes the JSON output and checks the
// analysis values end to end.
func TestAnalyzeCommandJSONOutput(t *testing.T) {
	tempDir := t.TempDir()
	generator := fixtures.NewRecordingGenerator(tempDir)

	_, err := generator.GenerateProtectionTrip("shift1.ru", e2eStart, 12)
	require.NoError(t, err)

	binaryPath := filepath.Join(t.TempDir(), "test-analyzer")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "..")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))

	// The logger writes to a file, so stdout carries nothing but JSON.
	cmd := exec.Command(binaryPath, tempDir, "--output", "json")
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	stdout, err := cmd.Output()
	require.NoError(t, err, "Command should succeed: %s", string(stdout))

	var results []*model.AnalysisResult
	require.NoError(t, sonic.Unmarshal(stdout, &results))
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "atp", r.Unit)
	assert.Equal(t, "G1001", r.Header.TrainNo)
	assert.Equal(t, 14, r.RecordCount)
	assert.InDelta(t, 90.0, r.Speed.MaxSpeed, 0.01)
	assert.Equal(t, 1, r.Events.EmergencyBrakeCount)
	assert.NotNil(t, r.Location, "Protection unit results carry location analysis")
}

// TestAnalyzeCommandInterfaceUnit analyzes an operator interface recording
// with --unit mmi.
func TestAnalyzeCommandInterfaceUnit(t *testing.T) {
	tempDir := t.TempDir()
	generator := fixtures.NewRecordingGenerator(tempDir)

	_, err := generator.GenerateInterfaceTrip("cab.ru", e2eStart, 12)
	require.NoError(t, err)

	binaryPath := filepath.Join(t.TempDir(), "test-analyzer")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "..")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))

	cmd := exec.Command(binaryPath, tempDir, "--unit", "mmi", "--output", "json")
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	stdout, err := cmd.Output()
	require.NoError(t, err, "Command should succeed: %s", string(stdout))

	var results []*model.AnalysisResult
	require.NoError(t, sonic.Unmarshal(stdout, &results))
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "mmi", r.Unit)
	assert.Equal(t, 16, r.RecordCount)
	assert.Nil(t, r.Location, "Interface unit recordings carry no location data")
	require.NotNil(t, r.Events.Modes)
	assert.Equal(t, 1, r.Events.Modes.TotalChanges)
}

// TestAnalyzeCommandCacheReuse runs the binary twice against the same home
// directory and checks that the second run is served from cache.
func TestAnalyzeCommandCacheReuse(t *testing.T) {
	tempDir := t.TempDir()
	generator := fixtures.NewRecordingGenerator(tempDir)

	_, err := generator.GenerateProtectionTrip("shift1.ru", e2eStart, 12)
	require.NoError(t, err)

	binaryPath := filepath.Join(t.TempDir(), "test-analyzer")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "..")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))

	// Both runs share one home so the second sees the first run's cache.
	home := t.TempDir()
	run := func() []*model.AnalysisResult {
		cmd := exec.Command(binaryPath, tempDir, "--output", "json")
		cmd.Env = append(os.Environ(), "HOME="+home)
		stdout, err := cmd.Output()
		require.NoError(t, err, "Command should succeed: %s", string(stdout))
		var results []*model.AnalysisResult
		require.NoError(t, sonic.Unmarshal(stdout, &results))
		require.Len(t, results, 1)
		return results
	}

	first := run()
	second := run()

	// A cache hit returns the stored result, so the run identity survives.
	assert.Equal(t, first[0].RunID, second[0].RunID)
	assert.Equal(t, first[0].GeneratedAt, second[0].GeneratedAt)
}

// TestCorrelateCommand correlates a protection and an interface recording of
// the same trip.
func TestCorrelateCommand(t *testing.T) {
	tempDir := t.TempDir()
	generator := fixtures.NewRecordingGenerator(tempDir)

	atpPath, err := generator.GenerateProtectionTrip("atp.ru", e2eStart, 12)
	require.NoError(t, err)
	mmiPath, err := generator.GenerateInterfaceTrip("mmi.ru", e2eStart, 12)
	require.NoError(t, err)

	binaryPath := filepath.Join(t.TempDir(), "test-analyzer")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "..")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))

	t.Run("table_output", func(t *testing.T) {
		cmd := exec.Command(binaryPath, "correlate", "--atp", atpPath, "--mmi", mmiPath, "--timezone", "UTC")
		cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
		output, err := cmd.CombinedOutput()

		assert.NoError(t, err, "Command should succeed: %s", string(output))
		outputStr := string(output)

		assert.Contains(t, outputStr, "Cross-Unit Correlation")
		assert.Contains(t, outputStr, "Matched:")
		assert.Contains(t, outputStr, "Correlation rate:")
		assert.Contains(t, outputStr, "Primary span:")
	})

	t.Run("json_output", func(t *testing.T) {
		cmd := exec.Command(binaryPath, "correlate", "--atp", atpPath, "--mmi", mmiPath, "--output", "json")
		cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
		stdout, err := cmd.Output()
		require.NoError(t, err, "Command should succeed: %s", string(stdout))

		var report model.CorrelationReport
		require.NoError(t, sonic.Unmarshal(stdout, &report))

		assert.Equal(t, atpPath, report.PrimaryFile)
		assert.Equal(t, mmiPath, report.SecondaryFile)
		assert.Greater(t, report.Speed.MatchCount, 0, "Overlapping recordings should produce speed matches")
		assert.InDelta(t, 0.0, report.Speed.AvgDifference, 0.01, "Both units recorded the same constant speed")
	})
}

// TestCommandErrorHandling checks that bad invocations fail with a clear
// message and a non-zero exit.
func TestCommandErrorHandling(t *testing.T) {
	tempDir := t.TempDir()
	generator := fixtures.NewRecordingGenerator(tempDir)

	_, err := generator.GenerateProtectionTrip("shift1.ru", e2eStart, 12)
	require.NoError(t, err)

	binaryPath := filepath.Join(t.TempDir(), "test-analyzer")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "..")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))

	testCases := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{
			name:          "unknown unit",
			args:          []string{tempDir, "--unit", "tcu"},
			expectedError: "unknown record family",
		},
		{
			name:          "missing input",
			args:          []string{filepath.Join(tempDir, "absent")},
			expectedError: "failed to locate recording files",
		},
		{
			name:          "correlate without recordings",
			args:          []string{"correlate"},
			expectedError: "required flag",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tc.args...)
			cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
			output, err := cmd.CombinedOutput()

			assert.Error(t, err, "Command should fail")
			assert.Contains(t, string(output), tc.expectedError)
		})
	}
}

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-ru-analyzer/internal/core/config"
)

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected func(string) string
	}{
		{
			name:  "home directory expansion",
			input: "~/test/path",
			expected: func(home string) string {
				return filepath.Join(home, "test/path")
			},
		},
		{
			name:  "absolute path unchanged",
			input: "/absolute/path",
			expected: func(home string) string {
				return "/absolute/path"
			},
		},
		{
			name:  "relative path converted to absolute",
			input: "relative/path",
			expected: func(home string) string {
				abs, _ := filepath.Abs("relative/path")
				return abs
			},
		},
	}

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			expected := tt.expected(home)
			assert.Equal(t, expected, result)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test", "nested", "dir")

	err := ensureDir(testDir)
	assert.NoError(t, err)

	info, err := os.Stat(testDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	// Test idempotency
	err = ensureDir(testDir)
	assert.NoError(t, err)
}

// stashGlobals restores the flag-bound package variables after a test that
// mutates them.
func stashGlobals(t *testing.T) {
	t.Helper()
	origConfig := configFile
	origOverspeed := overspeed
	origBestEffort := bestEffort
	origTimeTolerance := timeTolerance
	origSpeedTolerance := speedTolerance
	t.Cleanup(func() {
		configFile = origConfig
		overspeed = origOverspeed
		bestEffort = origBestEffort
		timeTolerance = origTimeTolerance
		speedTolerance = origSpeedTolerance
	})
}

// scratchCommand registers the threshold flags the way runAnalyze and
// runCorrelate see them, without touching the real commands.
func scratchCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "scratch"}
	cmd.Flags().Float64Var(&overspeed, "overspeed", 0, "")
	cmd.Flags().BoolVar(&bestEffort, "best-effort", false, "")
	cmd.Flags().Float64Var(&timeTolerance, "time-tolerance", 0, "")
	cmd.Flags().Float64Var(&speedTolerance, "speed-tolerance", 0, "")
	return cmd
}

func TestLoadAnalysisConfigDefaults(t *testing.T) {
	stashGlobals(t)
	configFile = ""

	cfg, err := loadAnalysisConfig(scratchCommand())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadAnalysisConfigFromFile(t *testing.T) {
	stashGlobals(t)

	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("overspeed_threshold: 70\nbest_effort: true\n"), 0644))
	configFile = path

	cfg, err := loadAnalysisConfig(scratchCommand())
	require.NoError(t, err)
	assert.Equal(t, 70.0, cfg.OverspeedThreshold)
	assert.True(t, cfg.BestEffort)
	assert.Equal(t, config.Default().MinRecords, cfg.MinRecords, "unset keys keep their defaults")
}

func TestLoadAnalysisConfigFlagOverridesFile(t *testing.T) {
	stashGlobals(t)

	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("overspeed_threshold: 70\n"), 0644))
	configFile = path

	cmd := scratchCommand()
	require.NoError(t, cmd.Flags().Set("overspeed", "75"))

	cfg, err := loadAnalysisConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.OverspeedThreshold)
}

func TestLoadAnalysisConfigToleranceFlags(t *testing.T) {
	stashGlobals(t)
	configFile = ""

	cmd := scratchCommand()
	require.NoError(t, cmd.Flags().Set("time-tolerance", "0.5"))
	require.NoError(t, cmd.Flags().Set("speed-tolerance", "1.0"))
	require.NoError(t, cmd.Flags().Set("best-effort", "true"))

	cfg, err := loadAnalysisConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.TimeTolerance)
	assert.Equal(t, 1.0, cfg.SpeedTolerance)
	assert.True(t, cfg.BestEffort)
}

func TestLoadAnalysisConfigRejectsInvalidThreshold(t *testing.T) {
	stashGlobals(t)
	configFile = ""

	cmd := scratchCommand()
	require.NoError(t, cmd.Flags().Set("overspeed", "-5"))

	_, err := loadAnalysisConfig(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overspeed_threshold")
}

func TestLoadAnalysisConfigMissingFile(t *testing.T) {
	stashGlobals(t)
	configFile = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := loadAnalysisConfig(scratchCommand())
	assert.Error(t, err)
}

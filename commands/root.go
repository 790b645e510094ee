package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-ru-analyzer/internal/analyzer"
	"github.com/penwyp/go-ru-analyzer/internal/core/config"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

var (
	// Logging related
	debug bool

	// Input data
	inputPath string
	unit      string

	// Output related
	outputFormat string
	formatAlias  string
	timezone     string

	// Analysis configuration
	configFile string
	overspeed  float64
	bestEffort bool
	reset      bool

	rootCmd = &cobra.Command{
		Use:   "go-ru-analyzer [flags] [path]",
		Short: "Train recording unit analysis tool",
		Long: `go-ru-analyzer decodes and analyzes the binary recording files written by a
train's onboard protection unit (ATP) and operator interface unit (MMI).

It scans a recording file or a directory of .ru/.ru.gz files, validates every
decoded stream, and reports speed, event, and location statistics per trip.

Examples:
  go-ru-analyzer /data/depot                          # Analyze every recording under a directory
  go-ru-analyzer trip.ru --output summary             # Full text report for one file
  go-ru-analyzer --unit mmi /data/depot/mmi           # Analyze interface unit recordings
  go-ru-analyzer --overspeed 80 --output csv .        # Lower overspeed threshold, CSV output
  go-ru-analyzer correlate --atp a.ru --mmi m.ru      # Cross-check the two units' recordings`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
)

const (
	defaultLogFile  = "~/.go-ru-analyzer/logs/app.log"
	defaultCacheDir = "~/.go-ru-analyzer/cache"
)

func init() {
	// Input data configuration
	rootCmd.Flags().StringVar(&inputPath, "dir", ".",
		"Recording file or directory to analyze (a positional path takes precedence)")
	rootCmd.Flags().StringVarP(&unit, "unit", "u", "atp",
		"Record family of the input (atp, mmi)")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	rootCmd.Flags().StringVar(&formatAlias, "format", "",
		"Alias for --output")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local",
		"Timezone for report timestamps (e.g., Asia/Shanghai, UTC)")

	// Analysis thresholds
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"YAML file overriding the default analysis thresholds")
	rootCmd.Flags().Float64Var(&overspeed, "overspeed", 0,
		"Overspeed threshold in km/h (overrides the config file)")
	rootCmd.Flags().BoolVar(&bestEffort, "best-effort", false,
		"Report per-section analysis failures instead of aborting the file")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.Flags().BoolVarP(&reset, "reset", "r", false,
		"Clear cached results before analysis")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// Determine log level based on debug flag
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	// Handle format alias
	if cmd.Flags().Changed("format") {
		outputFormat = formatAlias
	}

	// Initialize logging
	logFile := expandPath(defaultLogFile)
	ensureDir(filepath.Dir(logFile))
	util.InitLogger(logLevel, logFile, debug)
	util.InitializeTimeProvider(timezone)

	analysis, err := loadAnalysisConfig(cmd)
	if err != nil {
		return err
	}

	input := inputPath
	if len(args) > 0 {
		input = args[0]
	}
	input = expandPath(input)

	cacheDir := expandPath(defaultCacheDir)
	if err := ensureDir(cacheDir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	a, err := analyzer.New(&analyzer.Config{
		Input:        input,
		CacheDir:     cacheDir,
		OutputFormat: outputFormat,
		Unit:         unit,
		Analysis:     analysis,
	})
	if err != nil {
		return err
	}

	if reset {
		if err := a.ResetCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	return a.Run()
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

// loadAnalysisConfig builds the analysis thresholds from the optional config
// file, then applies any threshold flags set on cmd.
func loadAnalysisConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(expandPath(configFile))
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("overspeed") {
		cfg.OverspeedThreshold = overspeed
	}
	if flags.Changed("best-effort") {
		cfg.BestEffort = bestEffort
	}
	if flags.Changed("time-tolerance") {
		cfg.TimeTolerance = timeTolerance
	}
	if flags.Changed("speed-tolerance") {
		cfg.SpeedTolerance = speedTolerance
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

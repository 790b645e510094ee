package analyzer

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/penwyp/go-ru-analyzer/internal/core/config"
	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/aggregator"
	"github.com/penwyp/go-ru-analyzer/internal/data/cache"
	"github.com/penwyp/go-ru-analyzer/internal/data/parser"
	"github.com/penwyp/go-ru-analyzer/internal/data/scanner"
	"github.com/penwyp/go-ru-analyzer/internal/data/validator"
	"github.com/penwyp/go-ru-analyzer/internal/presentation/formatter"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

type Config struct {
	Input        string // one recording file, or a directory scanned recursively
	CacheDir     string
	OutputFormat string
	Unit         string
	Concurrency  int
	Analysis     config.Config
}

type Analyzer struct {
	config     *Config
	family     *model.Family
	cache      *cache.FileCache
	parser     *parser.Parser
	aggregator *aggregator.Aggregator
}

func New(cfg *Config) (*Analyzer, error) {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.NumCPU()
	}

	family, err := model.FamilyByName(cfg.Unit)
	if err != nil {
		return nil, err
	}

	fileCache, err := cache.NewFileCache(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("initialize cache at %s: %w", cfg.CacheDir, err)
	}

	return &Analyzer{
		config:     cfg,
		family:     family,
		cache:      fileCache,
		parser:     parser.NewParser(family, cfg.Concurrency),
		aggregator: aggregator.NewAggregator(cfg.Analysis),
	}, nil
}

func (a *Analyzer) Run() error {
	startTime := time.Now()
	util.LogInfo(fmt.Sprintf("Starting analysis of %s recordings...", a.family.Name))

	// Phase 1: Locate recording files
	scanStart := time.Now()
	files, err := a.resolveFiles()
	if err != nil {
		return fmt.Errorf("failed to locate recording files: %w", err)
	}
	scanDuration := time.Since(scanStart)
	util.LogDebug(fmt.Sprintf("Phase 1 - File scan duration: %v, found %d files", scanDuration, len(files)))

	if len(files) == 0 {
		return fmt.Errorf("no recording files found under %s", a.config.Input)
	}

	util.LogInfo(fmt.Sprintf("Found %d recording files", len(files)))

	// Phase 2: Cache lookup
	cacheStart := time.Now()
	stats := newRunStats()
	results := make([]*model.AnalysisResult, 0, len(files))
	var filesToAnalyze []string
	missReasons := make(map[string]cache.MissReason, len(files))

	for _, file := range files {
		stats.addFile()
		lookup := a.cache.Get(file)
		if lookup.Found && lookup.Data != nil {
			stats.addHit()
			results = append(results, lookup.Data)
			continue
		}
		filesToAnalyze = append(filesToAnalyze, file)
		missReasons[file] = lookup.MissReason
		util.LogDebug("Cache miss",
			util.Field{Key: "file", Value: file},
			util.Field{Key: "reason", Value: missReasonString(lookup.MissReason)})
	}
	cacheDuration := time.Since(cacheStart)
	util.LogDebug(fmt.Sprintf("Phase 2 - Cache lookup duration: %v, hits %d, need to analyze %d files",
		cacheDuration, len(results), len(filesToAnalyze)))

	// Phase 3: Decode, validate, and analyze the cache misses concurrently
	analyzeStart := time.Now()
	if len(filesToAnalyze) > 0 {
		parseResults := a.parser.ParseFiles(filesToAnalyze)

		processed := len(results)
		for res := range parseResults {
			processed++

			if res.Error != nil {
				stats.addFailure()
				util.LogWarn(fmt.Sprintf("Failed to decode file %s: %v", res.File, res.Error))
				continue
			}
			stats.addMiss(missReasons[res.File])

			result, err := a.analyzeFile(res)
			if err != nil {
				stats.addFailure()
				util.LogWarn(fmt.Sprintf("Failed to analyze file %s: %v", res.File, err))
				continue
			}

			if err := a.cache.Set(res.File, result); err != nil {
				util.LogWarn(fmt.Sprintf("Failed to save cache for %s: %v", res.File, err))
			}
			results = append(results, result)

			if processed%100 == 0 {
				stats.logProgress(processed)
			}
		}
	}
	analyzeDuration := time.Since(analyzeStart)
	util.LogDebug(fmt.Sprintf("Phase 3 - Decode and analysis duration: %v, results: %d", analyzeDuration, len(results)))

	stats.logSummary()

	if len(results) == 0 {
		return fmt.Errorf("no recording file could be analyzed")
	}

	// Phase 4: Sort results by source file for stable output
	sortStart := time.Now()
	sort.Slice(results, func(i, j int) bool {
		return results[i].File < results[j].File
	})
	sortDuration := time.Since(sortStart)
	util.LogDebug(fmt.Sprintf("Phase 4 - Result sorting duration: %v", sortDuration))

	// Phase 5: Format and output
	outputStart := time.Now()
	err = a.formatAndOutput(results)
	outputDuration := time.Since(outputStart)
	util.LogDebug(fmt.Sprintf("Phase 5 - Formatting and output duration: %v", outputDuration))

	totalDuration := time.Since(startTime)
	util.LogDebug(fmt.Sprintf("Total duration: %v (scan:%v cache:%v analyze:%v sort:%v output:%v)",
		totalDuration, scanDuration, cacheDuration, analyzeDuration, sortDuration, outputDuration))

	return err
}

// ResetCache removes every cached analysis under the configured cache
// directory, forcing the next run to decode from scratch.
func (a *Analyzer) ResetCache() error {
	return a.cache.Clear()
}

// resolveFiles expands the configured input into concrete recording file
// paths. A file path is taken as-is so that explicitly named inputs are never
// filtered out by extension.
func (a *Analyzer) resolveFiles() ([]string, error) {
	info, err := os.Stat(a.config.Input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{a.config.Input}, nil
	}
	return scanner.NewFileScanner(a.config.Input).Scan()
}

func (a *Analyzer) analyzeFile(res parser.ParseResult) (*model.AnalysisResult, error) {
	stream, err := validator.Validate(res.Header, res.Records, a.family, a.config.Analysis)
	if err != nil {
		return nil, err
	}

	result, err := a.aggregator.Aggregate(stream)
	if err != nil {
		return nil, err
	}
	result.File = res.File

	return result, nil
}

func (a *Analyzer) formatAndOutput(results []*model.AnalysisResult) error {
	switch a.config.OutputFormat {
	case "json":
		return formatter.NewJSONFormatter().Format(results)
	case "csv":
		return formatter.NewCSVFormatter().Format(results)
	case "summary":
		return formatter.NewSummaryFormatter().Format(results)
	default:
		return formatter.NewTableFormatter().Format(results)
	}
}

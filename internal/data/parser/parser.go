package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/data/decoder"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

// Parser decodes recording unit files of one family, transparently
// unwrapping gzip-compressed files.
type Parser struct {
	family      *model.Family
	concurrency int
	mu          sync.Mutex
	cache       map[string]parsed
}

type parsed struct {
	header  model.Header
	records []model.Record
}

// ParseResult represents the result of decoding a single file.
type ParseResult struct {
	File    string
	Header  model.Header
	Records []model.Record
	Error   error
}

// NewParser creates a new Parser instance for the given record family.
func NewParser(family *model.Family, concurrency int) *Parser {
	return &Parser{
		family:      family,
		concurrency: concurrency,
		cache:       make(map[string]parsed),
	}
}

// ParseFile decodes the recording file at the specified path and returns the
// file header and its records in file order.
func (p *Parser) ParseFile(path string) (model.Header, []model.Record, error) {
	p.mu.Lock()
	if cached, ok := p.cache[path]; ok {
		p.mu.Unlock()
		return cached.header, cached.records, nil
	}
	p.mu.Unlock()

	util.LogDebug(fmt.Sprintf("Start decoding file: %s", path))

	file, err := os.Open(path)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to open file: %s - %v", path, err))
		return model.Header{}, nil, err
	}
	defer file.Close()

	var r io.Reader = bufio.NewReaderSize(file, 64*1024)
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			util.LogDebug(fmt.Sprintf("Failed to open gzip stream: %s - %v", path, err))
			return model.Header{}, nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	header, records, err := decoder.Decode(r, p.family)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to decode file: %s - %v", path, err))
		return model.Header{}, nil, fmt.Errorf("decode %s: %w", path, err)
	}

	p.mu.Lock()
	p.cache[path] = parsed{header: header, records: records}
	p.mu.Unlock()

	return header, records, nil
}

// ParseFiles decodes multiple files concurrently and returns a channel of
// ParseResult. The channel is closed once every file has been decoded.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebug(fmt.Sprintf("Start concurrent decoding of %d files, concurrency: %d", len(files), p.concurrency))

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileStart := time.Now()
			header, records, err := p.ParseFile(f)
			fileDuration := time.Since(fileStart)

			if err != nil {
				util.LogDebug(fmt.Sprintf("File decoding failed: %s, duration %v - %v", f, fileDuration, err))
			}

			results <- ParseResult{
				File:    f,
				Header:  header,
				Records: records,
				Error:   err,
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)

		totalDuration := time.Since(start)
		util.LogDebug(fmt.Sprintf("Concurrent decoding finished, total duration: %v", totalDuration))
	}()

	return results
}

package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-ru-analyzer/internal/util"
)

// FileScanner scans files in the specified directory
type FileScanner struct {
	baseDir string
}

// ScanResult represents the result of a scan
type ScanResult struct {
	Files []string
	Error error
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir: baseDir,
	}
}

// Scan walks the directory tree and returns all .ru and .ru.gz file paths
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if IsRecordingFile(path) {
			files = append(files, path)
		}

		return nil
	})

	duration := time.Since(start)
	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, found %d recording files",
		duration, dirCount, totalCount, len(files)))

	return files, err
}

// IsRecordingFile reports whether path names a recording unit file,
// compressed or not.
func IsRecordingFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".ru") || strings.HasSuffix(lower, ".ru.gz")
}

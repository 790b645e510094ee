// Package cache persists analysis results between runs so unchanged
// recording files are not decoded and analyzed again. Entries are validated
// against the source file's identity (inode, size, modification time) and,
// for recently touched files, a content fingerprint.
package cache

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

type MissReason int

const (
	MissReasonNone MissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
)

// Entry is the persisted form of one cached analysis.
type Entry struct {
	SourcePath   string                `json:"source_path"`
	FileSize     int64                 `json:"file_size"`
	LastModified int64                 `json:"last_modified"`
	Inode        uint64                `json:"inode"`
	Fingerprint  string                `json:"fingerprint,omitempty"`
	CachedAt     time.Time             `json:"cached_at"`
	Result       *model.AnalysisResult `json:"result"`
}

// Result is the outcome of a cache lookup.
type Result struct {
	Data       *model.AnalysisResult
	Found      bool
	MissReason MissReason
}

// FileCache is a two-tier cache: a memory map in front of one JSON file per
// source recording under baseDir.
type FileCache struct {
	baseDir     string
	mu          sync.Mutex
	memoryCache map[string]*Entry
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*Entry),
	}, nil
}

// entryPath maps a source file path to its cache file. The key hashes the
// absolute path so distinct sources never collide on base name.
func (c *FileCache) entryPath(sourcePath string) string {
	sum := crc32.ChecksumIEEE([]byte(sourcePath))
	name := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(filepath.Base(sourcePath)))
	return filepath.Join(c.baseDir, fmt.Sprintf("%s-%08x.json", name, sum))
}

// Get returns the cached analysis for sourcePath if the file is unchanged
// since the entry was written.
func (c *FileCache) Get(sourcePath string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.memoryCache[sourcePath]; exists {
		if ret := c.validateEntry(entry); ret.valid {
			return Result{Data: entry.Result, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, sourcePath)
	}

	return c.getFromFile(sourcePath)
}

func (c *FileCache) getFromFile(sourcePath string) Result {
	raw, err := os.ReadFile(c.entryPath(sourcePath))
	if err != nil {
		return Result{Found: false, MissReason: MissReasonNotFound}
	}

	var entry Entry
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		return Result{Found: false, MissReason: MissReasonError}
	}
	if entry.SourcePath == "" {
		entry.SourcePath = sourcePath
	}

	if ret := c.validateEntry(&entry); !ret.valid {
		return Result{Found: false, MissReason: ret.reason}
	}

	c.memoryCache[sourcePath] = &entry

	return Result{Data: entry.Result, Found: true, MissReason: MissReasonNone}
}

type validateResult struct {
	valid  bool
	reason MissReason
}

func (c *FileCache) validateEntry(entry *Entry) validateResult {
	currentInfo, err := util.GetFileInfo(entry.SourcePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache validation failed for %s: unable to get file info: %v", entry.SourcePath, err))
		return validateResult{valid: false, reason: MissReasonError}
	}

	if currentInfo.Inode != entry.Inode {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			entry.SourcePath, entry.Inode, currentInfo.Inode))
		return validateResult{valid: false, reason: MissReasonInode}
	}
	if currentInfo.Size != entry.FileSize {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			entry.SourcePath, entry.FileSize, currentInfo.Size))
		return validateResult{valid: false, reason: MissReasonSize}
	}
	if currentInfo.ModTime != entry.LastModified {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			entry.SourcePath, entry.LastModified, currentInfo.ModTime))
		return validateResult{valid: false, reason: MissReasonModTime}
	}

	// Files untouched for two days are trusted on identity alone.
	modTime := time.Unix(currentInfo.ModTime, 0)
	if time.Since(modTime) > 48*time.Hour {
		return validateResult{valid: true, reason: MissReasonNone}
	}

	if entry.Fingerprint == "" {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: no fingerprint in cached entry", entry.SourcePath))
		return validateResult{valid: false, reason: MissReasonNoFingerprint}
	}

	fingerprint, err := util.CalculateFileFingerprint(entry.SourcePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: unable to calculate fingerprint: %v", entry.SourcePath, err))
		return validateResult{valid: false, reason: MissReasonNoFingerprint}
	}

	if fingerprint != entry.Fingerprint {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			entry.SourcePath, entry.Fingerprint, fingerprint))
		return validateResult{valid: false, reason: MissReasonFingerprint}
	}
	return validateResult{valid: true, reason: MissReasonNone}
}

// Set records the analysis result for sourcePath, capturing the file's
// current identity and fingerprint.
func (c *FileCache) Set(sourcePath string, result *model.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fileInfo, err := util.GetFileInfo(sourcePath)
	if err != nil {
		return err
	}

	entry := &Entry{
		SourcePath:   sourcePath,
		FileSize:     fileInfo.Size,
		LastModified: fileInfo.ModTime,
		Inode:        fileInfo.Inode,
		CachedAt:     time.Now().UTC(),
		Result:       result,
	}
	if fingerprint, err := util.CalculateFileFingerprint(sourcePath); err == nil {
		entry.Fingerprint = fingerprint
	}

	raw, err := sonic.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.entryPath(sourcePath), raw, 0644); err != nil {
		return err
	}

	c.memoryCache[sourcePath] = entry

	return nil
}

// Clear drops the memory tier and removes every cache file under baseDir.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*Entry)

	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Ext(path) == ".json" {
			os.Remove(path)
		}

		return nil
	})
}

// GetCacheStats returns the number of entries in each tier.
func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	memoryCount = len(c.memoryCache)

	filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			fileCount++
		}
		return nil
	})

	return memoryCount, fileCount
}

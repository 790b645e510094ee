package analyzer

import (
	"sync"

	"github.com/penwyp/go-ru-analyzer/internal/data/cache"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

// missReasonText maps cache miss reasons to the wording used in log lines.
var missReasonText = map[cache.MissReason]string{
	cache.MissReasonNone:          "none",
	cache.MissReasonError:         "cache read error",
	cache.MissReasonInode:         "file inode changed",
	cache.MissReasonSize:          "file size changed",
	cache.MissReasonModTime:       "modification time changed",
	cache.MissReasonFingerprint:   "file fingerprint changed",
	cache.MissReasonNoFingerprint: "cached entry has no fingerprint",
	cache.MissReasonNotFound:      "not cached",
}

func missReasonString(r cache.MissReason) string {
	if s, ok := missReasonText[r]; ok {
		return s
	}
	return "unknown reason"
}

// runStats counts how one run's recordings were served: straight from cache,
// freshly analyzed, or failed. Parse workers update it concurrently.
type runStats struct {
	mu       sync.Mutex
	total    int
	hits     int
	misses   int
	failures int
	reasons  map[cache.MissReason]int
}

func newRunStats() *runStats {
	return &runStats{reasons: make(map[cache.MissReason]int)}
}

func (s *runStats) addFile() {
	s.mu.Lock()
	s.total++
	s.mu.Unlock()
}

func (s *runStats) addHit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *runStats) addMiss(reason cache.MissReason) {
	s.mu.Lock()
	s.misses++
	s.reasons[reason]++
	s.mu.Unlock()
}

func (s *runStats) addFailure() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// statsSnapshot is a consistent copy of the counters.
type statsSnapshot struct {
	Total    int
	Hits     int
	Misses   int
	Failures int
	Reasons  map[cache.MissReason]int
}

func (s *runStats) snapshot() statsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	reasons := make(map[cache.MissReason]int, len(s.reasons))
	for r, n := range s.reasons {
		reasons[r] = n
	}
	return statsSnapshot{
		Total:    s.total,
		Hits:     s.hits,
		Misses:   s.misses,
		Failures: s.failures,
		Reasons:  reasons,
	}
}

// hitRate is the cache hit percentage over all files seen so far.
func (snap statsSnapshot) hitRate() float64 {
	if snap.Total == 0 {
		return 0
	}
	return float64(snap.Hits) / float64(snap.Total) * 100
}

// logProgress reports how far the run has come. Safe before InitLogger.
func (s *runStats) logProgress(processed int) {
	snap := s.snapshot()
	util.LogInfo("Analysis progress",
		util.Field{Key: "processed", Value: processed},
		util.Field{Key: "total", Value: snap.Total},
		util.Field{Key: "hit_rate", Value: snap.hitRate()},
		util.Field{Key: "failures", Value: snap.Failures},
	)
}

// logSummary reports the final counters and a per-reason miss breakdown.
func (s *runStats) logSummary() {
	snap := s.snapshot()
	util.LogInfo("Cache statistics",
		util.Field{Key: "files", Value: snap.Total},
		util.Field{Key: "hits", Value: snap.Hits},
		util.Field{Key: "misses", Value: snap.Misses},
		util.Field{Key: "failures", Value: snap.Failures},
		util.Field{Key: "hit_rate", Value: snap.hitRate()},
	)
	for reason, count := range snap.Reasons {
		util.LogDebug("Cache miss reason",
			util.Field{Key: "reason", Value: missReasonString(reason)},
			util.Field{Key: "files", Value: count},
		)
	}
}

package formatter

import (
	"path/filepath"
	"sort"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
)

// Formatter renders a batch of analysis results to stdout. Implementations
// write a whole batch in one call, so results from one run never interleave.
type Formatter interface {
	Format(results []*model.AnalysisResult) error
}

func displayFile(r *model.AnalysisResult) string {
	if r.File == "" {
		return "-"
	}
	return filepath.Base(r.File)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

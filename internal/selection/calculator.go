package selection

import (
	"sort"
	"strings"
	"sync"

	"github.com/temirov/ctxrepo/internal/types"
)

const (
	cacheKeySeparator = "\x00"
	cacheGroupMarker  = "\x01"
	defaultCacheLimit = 256
)

// Calculator memoizes ComputeTotals for one scan's FileStats. Keys are
// order-independent, so permuted selections share an entry.
type Calculator struct {
	fileStats  types.FileStats
	cacheLimit int

	mutex sync.Mutex
	cache map[string]types.Totals
}

// NewCalculator returns a Calculator over fileStats.
func NewCalculator(fileStats types.FileStats) *Calculator {
	return &Calculator{
		fileStats:  fileStats,
		cacheLimit: defaultCacheLimit,
		cache:      make(map[string]types.Totals),
	}
}

// Totals returns ComputeTotals for the selection, reusing a cached result when available.
func (calculator *Calculator) Totals(selectedPaths []string, excludedExtensions []string) types.Totals {
	key := cacheKey(selectedPaths, excludedExtensions)

	calculator.mutex.Lock()
	cached, found := calculator.cache[key]
	calculator.mutex.Unlock()
	if found {
		return cached
	}

	totals := ComputeTotals(calculator.fileStats, selectedPaths, excludedExtensions)

	calculator.mutex.Lock()
	if len(calculator.cache) >= calculator.cacheLimit {
		calculator.cache = make(map[string]types.Totals)
	}
	calculator.cache[key] = totals
	calculator.mutex.Unlock()
	return totals
}

func cacheKey(selectedPaths []string, excludedExtensions []string) string {
	return normalizedJoin(selectedPaths) + cacheGroupMarker + normalizedJoin(excludedExtensions)
}

func normalizedJoin(values []string) string {
	unique := make(map[string]struct{}, len(values))
	for _, value := range values {
		unique[value] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for value := range unique {
		sorted = append(sorted, value)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, cacheKeySeparator)
}

// Package selection computes aggregate totals for a set of selected files and
// directories while honoring excluded extension keys.
package selection

import (
	"sort"

	"github.com/temirov/ctxrepo/internal/types"
	"github.com/temirov/ctxrepo/internal/utils"
)

// ExpandSelection resolves selectedPaths against fileStats and returns the sorted,
// deduplicated paths whose statistics count toward the totals. A selected path
// with its own FileStat is a file; any other selected path is treated as a
// directory and expands to every FileStat beneath it. Unknown paths expand to
// nothing. Files whose extension key is in excludedExtensions are dropped.
func ExpandSelection(fileStats types.FileStats, selectedPaths []string, excludedExtensions []string) []string {
	excluded := make(map[string]struct{}, len(excludedExtensions))
	for _, extension := range excludedExtensions {
		excluded[extension] = struct{}{}
	}
	isExcluded := func(fileStat types.FileStat) bool {
		_, found := excluded[fileStat.Extension]
		return found
	}

	included := make(map[string]struct{})
	var directories []string
	for _, selectedPath := range selectedPaths {
		if fileStat, found := fileStats[selectedPath]; found {
			if !isExcluded(fileStat) {
				included[selectedPath] = struct{}{}
			}
			continue
		}
		directories = append(directories, selectedPath)
	}
	if len(directories) > 0 {
		for filePath, fileStat := range fileStats {
			if _, already := included[filePath]; already || isExcluded(fileStat) {
				continue
			}
			for _, directory := range directories {
				if utils.IsWithinDirectory(filePath, directory) {
					included[filePath] = struct{}{}
					break
				}
			}
		}
	}

	paths := make([]string, 0, len(included))
	for filePath := range included {
		paths = append(paths, filePath)
	}
	sort.Strings(paths)
	return paths
}

// ComputeTotals returns the file count, byte total and token total of the
// selection. Each file counts once however many selected paths cover it.
func ComputeTotals(fileStats types.FileStats, selectedPaths []string, excludedExtensions []string) types.Totals {
	var totals types.Totals
	for _, filePath := range ExpandSelection(fileStats, selectedPaths, excludedExtensions) {
		fileStat := fileStats[filePath]
		totals.Files++
		totals.Bytes += fileStat.ByteSize
		totals.Tokens += int64(fileStat.TokenCount)
	}
	return totals
}

// AllFiles returns every path in fileStats, sorted.
func AllFiles(fileStats types.FileStats) []string {
	paths := make([]string, 0, len(fileStats))
	for filePath := range fileStats {
		paths = append(paths, filePath)
	}
	sort.Strings(paths)
	return paths
}

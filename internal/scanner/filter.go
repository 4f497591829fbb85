package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"

	"github.com/temirov/ctxrepo/internal/utils"
)

// PathFilter decides which entries under a root take part in a scan. The Git
// directory is always excluded; exclusion patterns and the root .gitignore are
// optional. The tree builder applies the same filter so that every displayed
// file has a scan record.
type PathFilter struct {
	root           string
	ignorePatterns []string
	ignoreMatcher  gitignore.IgnoreMatcher
}

// NewPathFilter builds a PathFilter for the absolute root directory.
func NewPathFilter(root string, ignorePatterns []string, useGitignore bool) (*PathFilter, error) {
	filter := &PathFilter{
		root:           filepath.Clean(root),
		ignorePatterns: utils.DeduplicatePatterns(ignorePatterns),
	}
	if !useGitignore {
		return filter, nil
	}
	gitIgnorePath := filepath.Join(filter.root, utils.GitIgnoreFileName)
	if _, statError := os.Stat(gitIgnorePath); statError != nil {
		if os.IsNotExist(statError) {
			return filter, nil
		}
		return nil, fmt.Errorf(errorStatGitignoreFormat, gitIgnorePath, statError)
	}
	matcher, parseError := gitignore.NewGitIgnore(gitIgnorePath, filter.root)
	if parseError != nil {
		return nil, fmt.Errorf(errorParseGitignoreFormat, gitIgnorePath, parseError)
	}
	filter.ignoreMatcher = matcher
	return filter, nil
}

// Excludes reports whether the entry at absolutePath is left out of the scan.
func (filter *PathFilter) Excludes(absolutePath string, isDirectory bool) bool {
	if isDirectory && filepath.Base(absolutePath) == utils.GitDirectoryName {
		return true
	}
	if filter == nil {
		return false
	}
	relativePath := utils.RelativePathOrSelf(absolutePath, filter.root)
	if relativePath == "." {
		return false
	}
	if len(filter.ignorePatterns) > 0 && utils.ShouldIgnoreByPath(relativePath, filter.ignorePatterns) {
		return true
	}
	if filter.ignoreMatcher != nil && filter.ignoreMatcher.Match(absolutePath, isDirectory) {
		return true
	}
	return false
}

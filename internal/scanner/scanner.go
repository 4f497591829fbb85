// Package scanner walks a repository once, classifies every regular file by
// extension and records byte and token counts for readable text files.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/ctxrepo/internal/tokenizer"
	"github.com/temirov/ctxrepo/internal/types"
	"github.com/temirov/ctxrepo/internal/utils"
)

const (
	errorAbsolutePathFormat   = "getting absolute path for %s: %w"
	errorRootFormat           = "%w: %s: %v"
	errorRootNotDirectory     = "%w: %s is not a directory"
	errorStatGitignoreFormat  = "stat %s: %w"
	errorParseGitignoreFormat = "parse %s: %w"
	errorWalkFormat           = "walking %s: %w"

	logSkipBinary     = "skipping binary file"
	logSkipUnreadable = "skipping unreadable file"
	logSkipUndecoded  = "skipping file that is not valid UTF-8"
	logSkipTokens     = "skipping file whose tokens could not be counted"
	logSkipDirectory  = "skipping unreadable directory"
)

// ErrRootNotAccessible reports that the scan root does not exist or is not a directory.
var ErrRootNotAccessible = errors.New("repository not accessible")

// Options configures a scan. Zero values scan every file except the Git
// directory without counting tokens.
type Options struct {
	TokenCounter   tokenizer.Counter
	IgnorePatterns []string
	UseGitignore   bool
	Logger         *zap.Logger
}

// Scanner performs repository scans with fixed options.
type Scanner struct {
	options Options
	logger  *zap.Logger
}

// New returns a Scanner using options.
func New(options Options) *Scanner {
	return &Scanner{options: options, logger: utils.LoggerOrNop(options.Logger)}
}

// Scan walks rootPath with a Scanner built from options.
func Scan(ctx context.Context, rootPath string, options Options) (types.ScanResult, error) {
	return New(options).Scan(ctx, rootPath)
}

// Scan walks rootPath and returns the extension aggregates, the per-file
// statistics and the skipped paths. Paths are absolute. Only a missing or
// non-directory root and context cancellation are errors; every per-file
// failure becomes a skip.
func (scanner *Scanner) Scan(ctx context.Context, rootPath string) (types.ScanResult, error) {
	absoluteRoot, rootError := ResolveRoot(rootPath)
	if rootError != nil {
		return types.ScanResult{}, rootError
	}
	filter, filterError := NewPathFilter(absoluteRoot, scanner.options.IgnorePatterns, scanner.options.UseGitignore)
	if filterError != nil {
		return types.ScanResult{}, filterError
	}

	result := types.ScanResult{
		Root:       absoluteRoot,
		Extensions: types.ExtensionAggregates{},
		Files:      types.FileStats{},
		Skipped:    types.SkipSet{},
	}

	walkError := filepath.WalkDir(absoluteRoot, func(walkedPath string, directoryEntry fs.DirEntry, accessError error) error {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		if accessError != nil {
			if walkedPath == absoluteRoot {
				return fmt.Errorf(errorRootFormat, ErrRootNotAccessible, absoluteRoot, accessError)
			}
			scanner.logger.Debug(logSkipDirectory, zap.String("path", walkedPath), zap.Error(accessError))
			if directoryEntry != nil && directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			result.Skipped.Add(walkedPath)
			return nil
		}
		if walkedPath == absoluteRoot {
			return nil
		}
		if directoryEntry.IsDir() {
			if filter.Excludes(walkedPath, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !directoryEntry.Type().IsRegular() || filter.Excludes(walkedPath, false) {
			return nil
		}
		scanner.scanFile(walkedPath, directoryEntry.Name(), &result)
		return nil
	})
	if walkError != nil {
		if errors.Is(walkError, ErrRootNotAccessible) || errors.Is(walkError, context.Canceled) || errors.Is(walkError, context.DeadlineExceeded) {
			return types.ScanResult{}, walkError
		}
		return types.ScanResult{}, fmt.Errorf(errorWalkFormat, absoluteRoot, walkError)
	}
	return result, nil
}

// scanFile classifies one regular file and records either its statistics or a skip.
func (scanner *Scanner) scanFile(filePath string, fileName string, result *types.ScanResult) {
	if utils.IsFileBinary(filePath) {
		scanner.logger.Debug(logSkipBinary, zap.String("path", filePath))
		result.Skipped.Add(filePath)
		return
	}
	extensionKey := ExtensionKey(fileName)

	fileBytes, readError := os.ReadFile(filePath)
	if readError != nil {
		scanner.logger.Debug(logSkipUnreadable, zap.String("path", filePath), zap.Error(readError))
		result.Skipped.Add(filePath)
		return
	}
	tokenCount, decoded, countError := scanner.countTokens(fileBytes)
	if countError != nil {
		scanner.logger.Warn(logSkipTokens, zap.String("path", filePath), zap.Error(countError))
		result.Skipped.Add(filePath)
		return
	}
	if !decoded {
		scanner.logger.Debug(logSkipUndecoded, zap.String("path", filePath))
		result.Skipped.Add(filePath)
		return
	}

	fileStat := types.FileStat{
		Path:       filePath,
		Extension:  extensionKey,
		ByteSize:   int64(len(fileBytes)),
		TokenCount: tokenCount,
	}
	result.Files[filePath] = fileStat

	aggregate, exists := result.Extensions[extensionKey]
	if !exists {
		aggregate = &types.ExtensionAggregate{Extension: extensionKey}
		result.Extensions[extensionKey] = aggregate
	}
	aggregate.FileCount++
	aggregate.TotalBytes += fileStat.ByteSize
	aggregate.TotalTokens += fileStat.TokenCount
}

func (scanner *Scanner) countTokens(fileBytes []byte) (int, bool, error) {
	if scanner.options.TokenCounter == nil {
		countResult, _ := tokenizer.CountBytes(zeroCounter{}, fileBytes)
		return 0, countResult.Counted, nil
	}
	countResult, countError := tokenizer.CountBytes(scanner.options.TokenCounter, fileBytes)
	if countError != nil {
		return 0, false, countError
	}
	return countResult.Tokens, countResult.Counted, nil
}

// ResolveRoot returns the cleaned absolute form of rootPath after checking that
// it names an existing directory.
func ResolveRoot(rootPath string) (string, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, rootPath, absoluteError)
	}
	absoluteRoot = filepath.Clean(absoluteRoot)
	if linkInfo, linkError := os.Lstat(absoluteRoot); linkError == nil && linkInfo.Mode()&os.ModeSymlink != 0 {
		if resolvedRoot, resolveError := filepath.EvalSymlinks(absoluteRoot); resolveError == nil {
			absoluteRoot = resolvedRoot
		}
	}
	rootInfo, statError := os.Stat(absoluteRoot)
	if statError != nil {
		return "", fmt.Errorf(errorRootFormat, ErrRootNotAccessible, absoluteRoot, statError)
	}
	if !rootInfo.IsDir() {
		return "", fmt.Errorf(errorRootNotDirectory, ErrRootNotAccessible, absoluteRoot)
	}
	return absoluteRoot, nil
}

type zeroCounter struct{}

func (zeroCounter) Name() string { return "none" }

func (zeroCounter) CountString(string) (int, error) { return 0, nil }

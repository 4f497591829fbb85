// Package session owns the single current repository of a ctxrepo server: its
// checkout, its scan and its tree. Cloning replaces the current repository and the
// last completed operation wins.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/ctxrepo/internal/scanner"
	"github.com/temirov/ctxrepo/internal/selection"
	"github.com/temirov/ctxrepo/internal/tree"
	"github.com/temirov/ctxrepo/internal/types"
	"github.com/temirov/ctxrepo/internal/utils"
)

const (
	// DefaultRepositoriesDirectory is where clones are placed when no directory is configured.
	DefaultRepositoriesDirectory = "cloned_repos"

	gitSuffix = ".git"

	errorInvalidURLFormat      = "%w: %q"
	errorCreateDirectoryFormat = "create repositories directory %s: %w"
	errorCloneFormat           = "clone %s: %w"
	errorAbsolutePathFormat    = "getting absolute path for %s: %w"
	errorScanFormat            = "scan %s: %w"
	errorTreeFormat            = "build tree for %s: %w"
	errorDeleteFormat          = "delete %s: %w"

	logCloneStarted  = "cloning repository"
	logCloneReused   = "repository directory exists, reusing it"
	logRepositorySet = "repository loaded"
	logRepositoryDel = "repository deleted"
	logScanFailed    = "repository scan failed"
)

var (
	// ErrNoRepository reports that no repository is currently loaded.
	ErrNoRepository = errors.New("no repository selected")
	// ErrInvalidRepositoryURL reports a URL from which no checkout directory name can be derived.
	ErrInvalidRepositoryURL = errors.New("invalid repository url")
)

// Repository describes the loaded repository. URL is empty for local directories.
type Repository struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	URL      string    `json:"url,omitempty"`
	ClonedAt time.Time `json:"clonedAt"`
}

// Cloned reports whether the checkout was created by Clone.
func (repository Repository) Cloned() bool {
	return repository.URL != ""
}

// Snapshot is the immutable scan state of the current repository.
type Snapshot struct {
	Repository Repository
	Scan       types.ScanResult
	Tree       *types.TreeNode
	Calculator *selection.Calculator
}

// Config configures a Manager.
type Config struct {
	RepositoriesDirectory string
	ScanOptions           scanner.Options
}

// Manager serializes access to the current repository.
type Manager struct {
	config Config
	logger *zap.Logger

	mutex    sync.RWMutex
	snapshot *Snapshot
}

// NewManager returns a Manager without a current repository.
func NewManager(config Config, logger *zap.Logger) *Manager {
	if strings.TrimSpace(config.RepositoriesDirectory) == "" {
		config.RepositoriesDirectory = DefaultRepositoriesDirectory
	}
	logger = utils.LoggerOrNop(logger)
	if config.ScanOptions.Logger == nil {
		config.ScanOptions.Logger = logger
	}
	return &Manager{config: config, logger: logger}
}

// RepositoryNameFromURL returns the last path segment of url without a trailing
// ".git". SSH style URLs such as git@host:owner/name.git are accepted.
func RepositoryNameFromURL(url string) (string, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(url), "/")
	lastSeparator := strings.LastIndexAny(trimmedURL, "/:")
	name := strings.TrimSuffix(trimmedURL[lastSeparator+1:], gitSuffix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `\`) {
		return "", fmt.Errorf(errorInvalidURLFormat, ErrInvalidRepositoryURL, url)
	}
	return name, nil
}

// Clone checks out url below the repositories directory, scans it and makes it
// the current repository. An existing checkout directory of the same name is
// reused without fetching.
func (manager *Manager) Clone(ctx context.Context, url string) (*Snapshot, error) {
	name, nameError := RepositoryNameFromURL(url)
	if nameError != nil {
		return nil, nameError
	}
	repositoriesDirectory, absoluteError := filepath.Abs(manager.config.RepositoriesDirectory)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, manager.config.RepositoriesDirectory, absoluteError)
	}
	if mkdirError := os.MkdirAll(repositoriesDirectory, 0o755); mkdirError != nil {
		return nil, fmt.Errorf(errorCreateDirectoryFormat, repositoriesDirectory, mkdirError)
	}

	checkoutPath := filepath.Join(repositoriesDirectory, name)
	if _, statError := os.Stat(checkoutPath); statError == nil {
		manager.logger.Info(logCloneReused, zap.String("url", url), zap.String("path", checkoutPath))
	} else {
		manager.logger.Info(logCloneStarted, zap.String("url", url), zap.String("path", checkoutPath))
		if _, cloneError := git.PlainCloneContext(ctx, checkoutPath, false, &git.CloneOptions{URL: url}); cloneError != nil {
			_ = os.RemoveAll(checkoutPath)
			return nil, fmt.Errorf(errorCloneFormat, url, cloneError)
		}
	}

	return manager.load(ctx, Repository{
		ID:       uuid.NewString(),
		Name:     name,
		Path:     checkoutPath,
		URL:      url,
		ClonedAt: time.Now().UTC(),
	})
}

// Open makes the existing local directory at path the current repository.
func (manager *Manager) Open(ctx context.Context, path string) (*Snapshot, error) {
	absoluteRoot, rootError := scanner.ResolveRoot(path)
	if rootError != nil {
		return nil, rootError
	}
	return manager.load(ctx, Repository{
		ID:       uuid.NewString(),
		Name:     filepath.Base(absoluteRoot),
		Path:     absoluteRoot,
		ClonedAt: time.Now().UTC(),
	})
}

// Rescan repeats the scan of the current repository.
func (manager *Manager) Rescan(ctx context.Context) (*Snapshot, error) {
	current, currentError := manager.Snapshot()
	if currentError != nil {
		return nil, currentError
	}
	return manager.load(ctx, current.Repository)
}

// load scans repository outside the lock and then publishes the snapshot.
func (manager *Manager) load(ctx context.Context, repository Repository) (*Snapshot, error) {
	scanResult, scanError := scanner.Scan(ctx, repository.Path, manager.config.ScanOptions)
	if scanError != nil {
		manager.logger.Error(logScanFailed, zap.String("path", repository.Path), zap.Error(scanError))
		return nil, fmt.Errorf(errorScanFormat, repository.Path, scanError)
	}
	repository.Path = scanResult.Root

	filter, filterError := scanner.NewPathFilter(scanResult.Root, manager.config.ScanOptions.IgnorePatterns, manager.config.ScanOptions.UseGitignore)
	if filterError != nil {
		return nil, fmt.Errorf(errorTreeFormat, scanResult.Root, filterError)
	}
	builder := tree.Builder{Filter: filter, Logger: manager.logger}
	rootNode, treeError := builder.BuildFromScan(scanResult)
	if treeError != nil {
		return nil, fmt.Errorf(errorTreeFormat, scanResult.Root, treeError)
	}

	snapshot := &Snapshot{
		Repository: repository,
		Scan:       scanResult,
		Tree:       rootNode,
		Calculator: selection.NewCalculator(scanResult.Files),
	}
	manager.mutex.Lock()
	manager.snapshot = snapshot
	manager.mutex.Unlock()

	manager.logger.Info(logRepositorySet,
		zap.String("id", repository.ID),
		zap.String("path", repository.Path),
		zap.Int("files", len(scanResult.Files)),
		zap.Int("skipped", len(scanResult.Skipped)))
	return snapshot, nil
}

// Current returns the current repository.
func (manager *Manager) Current() (Repository, error) {
	snapshot, snapshotError := manager.Snapshot()
	if snapshotError != nil {
		return Repository{}, snapshotError
	}
	return snapshot.Repository, nil
}

// Snapshot returns the scan state of the current repository.
func (manager *Manager) Snapshot() (*Snapshot, error) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	if manager.snapshot == nil {
		return nil, ErrNoRepository
	}
	return manager.snapshot, nil
}

// Delete clears the current repository. Checkouts created by Clone are removed
// from disk; opened local directories are left untouched.
func (manager *Manager) Delete() error {
	manager.mutex.Lock()
	snapshot := manager.snapshot
	manager.snapshot = nil
	manager.mutex.Unlock()

	if snapshot == nil {
		return ErrNoRepository
	}
	repository := snapshot.Repository
	if repository.Cloned() {
		if removeError := os.RemoveAll(repository.Path); removeError != nil {
			return fmt.Errorf(errorDeleteFormat, repository.Path, removeError)
		}
	}
	manager.logger.Info(logRepositoryDel, zap.String("id", repository.ID), zap.String("path", repository.Path), zap.Bool("removed", repository.Cloned()))
	return nil
}

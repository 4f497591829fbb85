// Package tree derives the browsable repository tree from a scan.
package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/temirov/ctxrepo/internal/scanner"
	"github.com/temirov/ctxrepo/internal/types"
	"github.com/temirov/ctxrepo/internal/utils"
)

const (
	errorAbsolutePathFormat = "getting absolute path for %s: %w"

	logDirectoryUnreadable = "directory unreadable, rendering it empty"
	logUnscannedFile       = "file has no scan record, omitting it"
)

// Builder builds TreeNode hierarchies. Filter must be the filter the scan used;
// a nil Filter only hides Git directories.
type Builder struct {
	Filter *scanner.PathFilter
	Logger *zap.Logger
}

// BuildTree builds the tree for rootPath with a Builder that only hides Git directories.
func BuildTree(rootPath string, fileStats types.FileStats, skipped types.SkipSet) (*types.TreeNode, error) {
	return (&Builder{}).Build(rootPath, fileStats, skipped)
}

// BuildFromScan builds the tree for a scan result.
func (builder *Builder) BuildFromScan(result types.ScanResult) (*types.TreeNode, error) {
	return builder.Build(result.Root, result.Files, result.Skipped)
}

// Build walks rootPath a second time and returns its root directory node.
// File leaves take their sizes from fileStats or are flagged skipped when their
// path is in skipped; files known to neither are omitted. Children are ordered
// directories first, then by name. The root is resolved like scanner.Scan
// resolves it, so a symlinked root yields the same keys. A directory that cannot
// be read, the root included, is rendered with no children.
func (builder *Builder) Build(rootPath string, fileStats types.FileStats, skipped types.SkipSet) (*types.TreeNode, error) {
	absoluteRoot, resolveError := scanner.ResolveRoot(rootPath)
	if resolveError != nil {
		// A missing root renders empty; only an unresolvable path is an error.
		var absoluteError error
		absoluteRoot, absoluteError = filepath.Abs(rootPath)
		if absoluteError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, rootPath, absoluteError)
		}
		absoluteRoot = filepath.Clean(absoluteRoot)
	}

	rootNode := &types.TreeNode{
		Type: types.NodeTypeDirectory,
		Path: absoluteRoot,
		Name: filepath.Base(absoluteRoot),
	}
	rootNode.Children = builder.buildChildren(absoluteRoot, fileStats, skipped)
	return rootNode, nil
}

func (builder *Builder) buildChildren(directoryPath string, fileStats types.FileStats, skipped types.SkipSet) []*types.TreeNode {
	logger := utils.LoggerOrNop(builder.Logger)
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		logger.Debug(logDirectoryUnreadable, zap.String("path", directoryPath), zap.Error(readError))
		return []*types.TreeNode{}
	}

	nodes := make([]*types.TreeNode, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		if directoryEntry.IsDir() {
			if builder.Filter.Excludes(childPath, true) {
				continue
			}
			nodes = append(nodes, &types.TreeNode{
				Type:     types.NodeTypeDirectory,
				Path:     childPath,
				Name:     directoryEntry.Name(),
				Children: builder.buildChildren(childPath, fileStats, skipped),
			})
			continue
		}
		if builder.Filter.Excludes(childPath, false) {
			continue
		}

		fileNode := &types.TreeNode{
			Type: types.NodeTypeFile,
			Path: childPath,
			Name: directoryEntry.Name(),
		}
		if skipped.Contains(childPath) {
			fileNode.Skipped = true
		} else if fileStat, found := fileStats[childPath]; found {
			fileNode.ByteSize = fileStat.ByteSize
			fileNode.TokenCount = fileStat.TokenCount
		} else {
			logger.Debug(logUnscannedFile, zap.String("path", childPath))
			continue
		}
		nodes = append(nodes, fileNode)
	}

	SortChildren(nodes)
	return nodes
}

// SortChildren orders nodes directories first, then lexicographically by name.
func SortChildren(nodes []*types.TreeNode) {
	sort.SliceStable(nodes, func(left, right int) bool {
		if nodes[left].IsDirectory() != nodes[right].IsDirectory() {
			return nodes[left].IsDirectory()
		}
		return nodes[left].Name < nodes[right].Name
	})
}

// Walk calls visit for every node in depth-first order, parents before children.
func Walk(node *types.TreeNode, visit func(*types.TreeNode)) {
	if node == nil {
		return
	}
	visit(node)
	for _, child := range node.Children {
		Walk(child, visit)
	}
}

// FilePaths returns the paths of all non-skipped file leaves under node.
func FilePaths(node *types.TreeNode) []string {
	var paths []string
	Walk(node, func(current *types.TreeNode) {
		if !current.IsDirectory() && !current.Skipped {
			paths = append(paths, current.Path)
		}
	})
	return paths
}

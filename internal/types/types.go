// Package types defines every cross‑package data structure used by the ctxrepo tool.
package types

import "encoding/xml"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"

	// NoExtensionKey is the extension key of files whose name carries no extension.
	NoExtensionKey = "(no extension)"
)

// FileStat is the per-file record produced by a scan for every readable text file.
type FileStat struct {
	Path       string `json:"path" xml:"path"`
	Extension  string `json:"extension" xml:"extension"`
	ByteSize   int64  `json:"bytes" xml:"bytes"`
	TokenCount int    `json:"tokens" xml:"tokens"`
}

// FileStats maps a file path to its FileStat.
type FileStats map[string]FileStat

// ExtensionAggregate sums the FileStats sharing one extension key.
type ExtensionAggregate struct {
	Extension   string `json:"extension" xml:"extension"`
	FileCount   int    `json:"files" xml:"files"`
	TotalBytes  int64  `json:"bytes" xml:"bytes"`
	TotalTokens int    `json:"tokens" xml:"tokens"`
}

// ExtensionAggregates maps an extension key to its aggregate.
type ExtensionAggregates map[string]*ExtensionAggregate

// SkipSet holds the paths of files excluded from statistics.
type SkipSet map[string]struct{}

// Contains reports whether path was skipped.
func (skipSet SkipSet) Contains(path string) bool {
	_, found := skipSet[path]
	return found
}

// Add records path as skipped.
func (skipSet SkipSet) Add(path string) {
	skipSet[path] = struct{}{}
}

// ScanResult is everything a single scan produces.
type ScanResult struct {
	Root       string
	Extensions ExtensionAggregates
	Files      FileStats
	Skipped    SkipSet
}

// TreeNode is a file or directory in the browsable repository tree.
// Type selects the variant: directories carry Children, files carry
// ByteSize and TokenCount unless Skipped is set.
type TreeNode struct {
	XMLName    xml.Name    `json:"-" xml:"node"`
	Type       string      `json:"type" xml:"type"`
	Path       string      `json:"path" xml:"path"`
	Name       string      `json:"name" xml:"name"`
	ByteSize   int64       `json:"bytes,omitempty" xml:"bytes,omitempty"`
	TokenCount int         `json:"tokens,omitempty" xml:"tokens,omitempty"`
	Skipped    bool        `json:"skipped,omitempty" xml:"skipped,omitempty"`
	Children   []*TreeNode `json:"children,omitempty" xml:"children>node,omitempty"`
}

// IsDirectory reports whether the node is the directory variant.
func (node *TreeNode) IsDirectory() bool {
	return node.Type == NodeTypeDirectory
}

// Totals is the (files, bytes, tokens) triple reported for a selection.
type Totals struct {
	Files  int   `json:"totalFiles" xml:"totalFiles"`
	Bytes  int64 `json:"totalBytes" xml:"totalBytes"`
	Tokens int64 `json:"totalTokens" xml:"totalTokens"`
}

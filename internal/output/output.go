// Package output renders scan results, trees, totals and combined artifacts in
// the raw, JSON and XML formats.
package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/temirov/ctxrepo/internal/combine"
	"github.com/temirov/ctxrepo/internal/types"
	"github.com/temirov/ctxrepo/internal/utils"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	xmlHeader = xml.Header

	// TotalsLineFormat is the human readable totals line.
	TotalsLineFormat = "Total: %d files, %d bytes, %d tokens"

	extensionHeaderFormat = "%-20s %8s %12s %12s\n"
	extensionRowFormat    = "%-20s %8d %12d %12d\n"
	skippedLineFormat     = "Skipped: %d files\n"
	rootLineFormat        = "Root: %s\n"

	treeFileFormat      = "%s%s (%d bytes, %d tokens)\n"
	treeSkippedFormat   = "%s[Skipped] %s\n"
	treeDirectoryFormat = "%s%s/\n"

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	errorUnsupportedFormat = "unsupported output format %q"
)

// ScanReport is the serializable form of a scan.
type ScanReport struct {
	XMLName    xml.Name                   `json:"-" xml:"scan"`
	Root       string                     `json:"root" xml:"root"`
	Extensions []types.ExtensionAggregate `json:"extensions" xml:"extensions>extension"`
	Skipped    []string                   `json:"skipped" xml:"skipped>path"`
}

type totalsDocument struct {
	XMLName xml.Name `xml:"totals"`
	types.Totals
}

type artifactDocument struct {
	XMLName xml.Name     `xml:"combined"`
	Paths   []string     `xml:"paths>path"`
	Totals  types.Totals `xml:"totals"`
	Text    string       `xml:"text"`
}

// SortedExtensions returns the aggregates ordered with the no-extension key
// first and the remaining keys lexicographically.
func SortedExtensions(aggregates types.ExtensionAggregates) []types.ExtensionAggregate {
	sorted := make([]types.ExtensionAggregate, 0, len(aggregates))
	for _, aggregate := range aggregates {
		sorted = append(sorted, *aggregate)
	}
	sort.Slice(sorted, func(left, right int) bool {
		return ExtensionKeyLess(sorted[left].Extension, sorted[right].Extension)
	})
	return sorted
}

// ExtensionKeyLess orders extension keys for display.
func ExtensionKeyLess(left, right string) bool {
	if left == types.NoExtensionKey || right == types.NoExtensionKey {
		return left == types.NoExtensionKey && right != types.NoExtensionKey
	}
	return left < right
}

// NewScanReport converts a scan result into its report form. Skipped paths are
// relative to the root.
func NewScanReport(result types.ScanResult) ScanReport {
	skipped := make([]string, 0, len(result.Skipped))
	for skippedPath := range result.Skipped {
		skipped = append(skipped, utils.RelativePathOrSelf(skippedPath, result.Root))
	}
	sort.Strings(skipped)
	return ScanReport{
		Root:       result.Root,
		Extensions: SortedExtensions(result.Extensions),
		Skipped:    skipped,
	}
}

// RenderScan renders the extension table of a scan.
func RenderScan(format string, result types.ScanResult) (string, error) {
	report := NewScanReport(result)
	switch format {
	case types.FormatRaw:
		var buffer bytes.Buffer
		fmt.Fprintf(&buffer, rootLineFormat, report.Root)
		fmt.Fprintf(&buffer, extensionHeaderFormat, "Extension", "Files", "Bytes", "Tokens")
		for _, aggregate := range report.Extensions {
			fmt.Fprintf(&buffer, extensionRowFormat, aggregate.Extension, aggregate.FileCount, aggregate.TotalBytes, aggregate.TotalTokens)
		}
		fmt.Fprintf(&buffer, skippedLineFormat, len(report.Skipped))
		return buffer.String(), nil
	case types.FormatJSON:
		return marshalJSON(report)
	case types.FormatXML:
		return marshalXML(report)
	default:
		return "", fmt.Errorf(errorUnsupportedFormat, format)
	}
}

// RenderTree renders a repository tree.
func RenderTree(format string, rootNode *types.TreeNode) (string, error) {
	switch format {
	case types.FormatRaw:
		var buffer bytes.Buffer
		WriteTreeRaw(&buffer, rootNode)
		return buffer.String(), nil
	case types.FormatJSON:
		return marshalJSON(rootNode)
	case types.FormatXML:
		return marshalXML(rootNode)
	default:
		return "", fmt.Errorf(errorUnsupportedFormat, format)
	}
}

// WriteTreeRaw draws the tree with box connectors. The root line holds the
// root path, files carry their byte and token counts and skipped files are marked.
func WriteTreeRaw(writer io.Writer, rootNode *types.TreeNode) {
	if rootNode == nil {
		return
	}
	fmt.Fprintln(writer, rootNode.Path)
	writeChildren(writer, rootNode.Children, "")
}

func writeChildren(writer io.Writer, children []*types.TreeNode, prefix string) {
	for index, child := range children {
		connector, childPrefix := treeBranchConnector, prefix+treeBranchPadding
		if index == len(children)-1 {
			connector, childPrefix = treeLastConnector, prefix+treeLastPadding
		}
		linePrefix := prefix + connector
		switch {
		case child.IsDirectory():
			fmt.Fprintf(writer, treeDirectoryFormat, linePrefix, child.Name)
			writeChildren(writer, child.Children, childPrefix)
		case child.Skipped:
			fmt.Fprintf(writer, treeSkippedFormat, linePrefix, child.Name)
		default:
			fmt.Fprintf(writer, treeFileFormat, linePrefix, child.Name, child.ByteSize, child.TokenCount)
		}
	}
}

// FormatTotals returns the human readable totals line.
func FormatTotals(totals types.Totals) string {
	return fmt.Sprintf(TotalsLineFormat, totals.Files, totals.Bytes, totals.Tokens)
}

// RenderTotals renders selection totals.
func RenderTotals(format string, totals types.Totals) (string, error) {
	switch format {
	case types.FormatRaw:
		return FormatTotals(totals) + "\n", nil
	case types.FormatJSON:
		return marshalJSON(totals)
	case types.FormatXML:
		return marshalXML(totalsDocument{Totals: totals})
	default:
		return "", fmt.Errorf(errorUnsupportedFormat, format)
	}
}

// RenderArtifact renders a combined artifact. The raw form is the artifact text itself.
func RenderArtifact(format string, artifact combine.Artifact) (string, error) {
	switch format {
	case types.FormatRaw:
		return artifact.Text, nil
	case types.FormatJSON:
		return marshalJSON(artifact)
	case types.FormatXML:
		return marshalXML(artifactDocument{Paths: artifact.Paths, Totals: artifact.Totals, Text: artifact.Text})
	default:
		return "", fmt.Errorf(errorUnsupportedFormat, format)
	}
}

func marshalJSON(value interface{}) (string, error) {
	encoded, jsonEncodeError := json.MarshalIndent(value, indentPrefix, indentSpacer)
	if jsonEncodeError != nil {
		return "", jsonEncodeError
	}
	return string(encoded) + "\n", nil
}

func marshalXML(value interface{}) (string, error) {
	encoded, xmlMarshalError := xml.MarshalIndent(value, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", xmlMarshalError
	}
	return xmlHeader + string(encoded) + "\n", nil
}

package output_test

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/temirov/ctxrepo/internal/combine"
	"github.com/temirov/ctxrepo/internal/output"
	"github.com/temirov/ctxrepo/internal/types"
)

const sampleRoot = "/repos/sample"

func sampleScan() types.ScanResult {
	return types.ScanResult{
		Root: sampleRoot,
		Extensions: types.ExtensionAggregates{
			".txt":               {Extension: ".txt", FileCount: 1, TotalBytes: 13, TotalTokens: 4},
			".py":                {Extension: ".py", FileCount: 1, TotalBytes: 22, TotalTokens: 6},
			types.NoExtensionKey: {Extension: types.NoExtensionKey, FileCount: 1, TotalBytes: 11, TotalTokens: 3},
			".gitignore":         {Extension: ".gitignore", FileCount: 1, TotalBytes: 11, TotalTokens: 5},
		},
		Files:   types.FileStats{},
		Skipped: types.SkipSet{sampleRoot + "/binary_file": {}},
	}
}

func sampleTree() *types.TreeNode {
	return &types.TreeNode{
		Type: types.NodeTypeDirectory,
		Path: sampleRoot,
		Name: "sample",
		Children: []*types.TreeNode{
			{
				Type: types.NodeTypeDirectory,
				Path: sampleRoot + "/dir1",
				Name: "dir1",
				Children: []*types.TreeNode{
					{Type: types.NodeTypeFile, Path: sampleRoot + "/dir1/file3.js", Name: "file3.js", ByteSize: 29, TokenCount: 8},
				},
			},
			{Type: types.NodeTypeDirectory, Path: sampleRoot + "/dir2", Name: "dir2", Children: []*types.TreeNode{}},
			{Type: types.NodeTypeFile, Path: sampleRoot + "/binary_file", Name: "binary_file", Skipped: true},
			{Type: types.NodeTypeFile, Path: sampleRoot + "/file1.txt", Name: "file1.txt", ByteSize: 13, TokenCount: 4},
		},
	}
}

func TestSortedExtensionsPutsNoExtensionFirst(testingHandle *testing.T) {
	sorted := output.SortedExtensions(sampleScan().Extensions)
	expected := []string{types.NoExtensionKey, ".gitignore", ".py", ".txt"}
	if len(sorted) != len(expected) {
		testingHandle.Fatalf("expected %d aggregates, got %d", len(expected), len(sorted))
	}
	for index, aggregate := range sorted {
		if aggregate.Extension != expected[index] {
			testingHandle.Fatalf("position %d: expected %s, got %s", index, expected[index], aggregate.Extension)
		}
	}
}

func TestWriteTreeRaw(testingHandle *testing.T) {
	rendered, err := output.RenderTree(types.FormatRaw, sampleTree())
	if err != nil {
		testingHandle.Fatalf("RenderTree error: %v", err)
	}
	expected := sampleRoot + "\n" +
		"├── dir1/\n" +
		"│   └── file3.js (29 bytes, 8 tokens)\n" +
		"├── dir2/\n" +
		"├── [Skipped] binary_file\n" +
		"└── file1.txt (13 bytes, 4 tokens)\n"
	if rendered != expected {
		testingHandle.Fatalf("unexpected tree:\n%s", rendered)
	}
}

func TestRenderTreeJSONAndXML(testingHandle *testing.T) {
	renderedJSON, err := output.RenderTree(types.FormatJSON, sampleTree())
	if err != nil {
		testingHandle.Fatalf("RenderTree json error: %v", err)
	}
	var decoded types.TreeNode
	if err := json.Unmarshal([]byte(renderedJSON), &decoded); err != nil {
		testingHandle.Fatalf("invalid json: %v", err)
	}
	if len(decoded.Children) != 4 || !decoded.Children[2].Skipped || decoded.Children[0].Children[0].TokenCount != 8 {
		testingHandle.Fatalf("unexpected decoded tree: %+v", decoded)
	}

	renderedXML, err := output.RenderTree(types.FormatXML, sampleTree())
	if err != nil {
		testingHandle.Fatalf("RenderTree xml error: %v", err)
	}
	if !strings.HasPrefix(renderedXML, xml.Header) || !strings.Contains(renderedXML, "<skipped>true</skipped>") {
		testingHandle.Fatalf("unexpected xml:\n%s", renderedXML)
	}
}

func TestRenderScan(testingHandle *testing.T) {
	rendered, err := output.RenderScan(types.FormatRaw, sampleScan())
	if err != nil {
		testingHandle.Fatalf("RenderScan error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(rendered), "\n")
	if len(lines) != 7 {
		testingHandle.Fatalf("expected 7 lines, got %d:\n%s", len(lines), rendered)
	}
	if !strings.HasPrefix(lines[2], types.NoExtensionKey) || lines[6] != "Skipped: 1 files" {
		testingHandle.Fatalf("unexpected raw scan:\n%s", rendered)
	}

	renderedJSON, err := output.RenderScan(types.FormatJSON, sampleScan())
	if err != nil {
		testingHandle.Fatalf("RenderScan json error: %v", err)
	}
	var report output.ScanReport
	if err := json.Unmarshal([]byte(renderedJSON), &report); err != nil {
		testingHandle.Fatalf("invalid json: %v", err)
	}
	if len(report.Extensions) != 4 || report.Extensions[0].Extension != types.NoExtensionKey || len(report.Skipped) != 1 || report.Skipped[0] != "binary_file" {
		testingHandle.Fatalf("unexpected report: %+v", report)
	}

	renderedXML, err := output.RenderScan(types.FormatXML, sampleScan())
	if err != nil {
		testingHandle.Fatalf("RenderScan xml error: %v", err)
	}
	if !strings.Contains(renderedXML, "<extension>.gitignore</extension>") {
		testingHandle.Fatalf("unexpected xml:\n%s", renderedXML)
	}
}

func TestRenderTotals(testingHandle *testing.T) {
	totals := types.Totals{Files: 5, Bytes: 86, Tokens: 26}
	if line := output.FormatTotals(totals); line != "Total: 5 files, 86 bytes, 26 tokens" {
		testingHandle.Fatalf("unexpected totals line %q", line)
	}
	renderedJSON, err := output.RenderTotals(types.FormatJSON, totals)
	if err != nil || !strings.Contains(renderedJSON, `"totalTokens": 26`) {
		testingHandle.Fatalf("unexpected json totals %q err %v", renderedJSON, err)
	}
	renderedXML, err := output.RenderTotals(types.FormatXML, totals)
	if err != nil || !strings.Contains(renderedXML, "<totals>") || !strings.Contains(renderedXML, "<totalBytes>86</totalBytes>") {
		testingHandle.Fatalf("unexpected xml totals %q err %v", renderedXML, err)
	}
	if _, err := output.RenderTotals("yaml", totals); err == nil {
		testingHandle.Fatalf("expected unsupported format error")
	}
}

func TestRenderArtifact(testingHandle *testing.T) {
	artifact := combine.Artifact{
		Text:   ">>> FILE: file1.txt <<<\nHello\n\n",
		Paths:  []string{sampleRoot + "/file1.txt"},
		Totals: types.Totals{Files: 1, Bytes: 5, Tokens: 1},
	}
	raw, err := output.RenderArtifact(types.FormatRaw, artifact)
	if err != nil || raw != artifact.Text {
		testingHandle.Fatalf("raw artifact must be the text itself, got %q err %v", raw, err)
	}
	renderedXML, err := output.RenderArtifact(types.FormatXML, artifact)
	if err != nil || !strings.Contains(renderedXML, "&gt;&gt;&gt; FILE: file1.txt &lt;&lt;&lt;") {
		testingHandle.Fatalf("unexpected xml artifact %q err %v", renderedXML, err)
	}
}

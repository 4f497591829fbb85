package utils_test

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ctxrepo/internal/utils"
)

func TestIsBinary(t *testing.T) {
	mostlyControl := make([]byte, 10)
	for index := range mostlyControl {
		mostlyControl[index] = 0x01
	}
	mostlyControl[0] = 'a'

	fewControl := []byte("abcdefghij")
	fewControl[0] = 0x02
	fewControl[1] = 0x03
	fewControl[2] = 0x04

	testCases := []struct {
		name     string
		sample   []byte
		expected bool
	}{
		{name: "empty", sample: nil, expected: false},
		{name: "ascii", sample: []byte("package main\n\nfunc main() {}\n"), expected: false},
		{name: "null byte", sample: []byte("text\x00more"), expected: true},
		{name: "utf8 text", sample: []byte("héllo wörld ✓"), expected: false},
		{name: "latin1 high bytes", sample: []byte{'c', 'a', 'f', 0xe9}, expected: false},
		{name: "control heavy", sample: mostlyControl, expected: true},
		{name: "control at limit", sample: fewControl, expected: false},
		{name: "escape and form feed", sample: []byte("\x1b[31mred\x1b[0m\f\r\n\t"), expected: false},
		{name: "delete bytes", sample: []byte{0x7f, 0x7f, 'a'}, expected: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := utils.IsBinary(testCase.sample); result != testCase.expected {
				t.Fatalf("IsBinary(%q) = %v, want %v", testCase.sample, result, testCase.expected)
			}
		})
	}
}

func TestIsFileBinary(t *testing.T) {
	directory := t.TempDir()
	textPath := filepath.Join(directory, "sample.txt")
	binaryPath := filepath.Join(directory, "sample.bin")
	emptyPath := filepath.Join(directory, "empty")
	if err := os.WriteFile(textPath, []byte("Hello, world!"), 0o600); err != nil {
		t.Fatalf("write text file: %v", err)
	}
	if err := os.WriteFile(binaryPath, []byte{0x00, 0x01, 0x02, 0x03}, 0o600); err != nil {
		t.Fatalf("write binary file: %v", err)
	}
	if err := os.WriteFile(emptyPath, nil, 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	if utils.IsFileBinary(textPath) {
		t.Fatalf("expected %s to be text", textPath)
	}
	if !utils.IsFileBinary(binaryPath) {
		t.Fatalf("expected %s to be binary", binaryPath)
	}
	if utils.IsFileBinary(emptyPath) {
		t.Fatalf("expected empty file to be text")
	}
	if utils.IsFileBinary(filepath.Join(directory, "missing")) {
		t.Fatalf("expected missing file to report not binary")
	}
}

func TestShouldIgnoreByPath(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		patterns []string
		expected bool
	}{
		{name: "no patterns", path: "main.go", patterns: nil, expected: false},
		{name: "glob on name", path: "docs/readme.md", patterns: []string{"*.md"}, expected: true},
		{name: "directory pattern", path: "vendor/lib/a.go", patterns: []string{"vendor/"}, expected: true},
		{name: "nested directory pattern", path: "web/node_modules/index.js", patterns: []string{"web/node_modules/"}, expected: true},
		{name: "nested directory elsewhere", path: "other/node_modules/index.js", patterns: []string{"web/node_modules/"}, expected: false},
		{name: "backslash pattern", path: "web/node_modules/index.js", patterns: []string{`web\node_modules\`}, expected: true},
		{name: "exact multi segment", path: "cmd/tool/main.go", patterns: []string{"cmd/*/main.go"}, expected: true},
		{name: "gitignore itself is kept", path: ".gitignore", patterns: []string{"*.txt"}, expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := utils.ShouldIgnoreByPath(testCase.path, testCase.patterns); result != testCase.expected {
				t.Fatalf("ShouldIgnoreByPath(%q, %v) = %v, want %v", testCase.path, testCase.patterns, result, testCase.expected)
			}
		})
	}
}

func TestIsWithinDirectory(t *testing.T) {
	root := filepath.Join(string(os.PathSeparator), "repo")
	testCases := []struct {
		name      string
		path      string
		directory string
		expected  bool
	}{
		{name: "same", path: root, directory: root, expected: true},
		{name: "child", path: filepath.Join(root, "dir1", "file3.js"), directory: root, expected: true},
		{name: "sibling prefix", path: filepath.Join(string(os.PathSeparator), "repository", "a.txt"), directory: root, expected: false},
		{name: "trailing separator", path: filepath.Join(root, "a.txt"), directory: root + string(os.PathSeparator), expected: true},
		{name: "filesystem root", path: filepath.Join(root, "a.txt"), directory: string(os.PathSeparator), expected: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := utils.IsWithinDirectory(testCase.path, testCase.directory); result != testCase.expected {
				t.Fatalf("IsWithinDirectory(%q, %q) = %v, want %v", testCase.path, testCase.directory, result, testCase.expected)
			}
		})
	}
}

func TestDeduplicatePatterns(t *testing.T) {
	result := utils.DeduplicatePatterns([]string{"vendor/", " *.md", "", "vendor/", "*.md"})
	expected := []string{"vendor/", "*.md"}
	if len(result) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, result)
	}
	for index := range expected {
		if result[index] != expected[index] {
			t.Fatalf("expected %v, got %v", expected, result)
		}
	}
}

func TestRelativePathOrSelf(t *testing.T) {
	root := t.TempDir()
	if result := utils.RelativePathOrSelf(root, root); result != "." {
		t.Fatalf("expected '.', got %q", result)
	}
	nested := filepath.Join(root, "dir1", "file3.js")
	if result := utils.RelativePathOrSelf(nested, root); result != "dir1/file3.js" {
		t.Fatalf("expected dir1/file3.js, got %q", result)
	}
}

func TestRedirectStandardLogRoutesToDebug(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	restore, err := utils.RedirectStandardLog(zap.New(core))
	if err != nil {
		t.Fatalf("redirect: %v", err)
	}
	log.Printf("INFO: CachedDir=%q", "/tmp/tokenizer")
	restore()
	log.Printf("after restore")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected one redirected entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || !strings.Contains(entries[0].Message, "CachedDir") {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

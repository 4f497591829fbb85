// Package combine concatenates the contents of a selection into one text
// artifact that can be pasted into a language model prompt.
package combine

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ctxrepo/internal/selection"
	"github.com/temirov/ctxrepo/internal/types"
	"github.com/temirov/ctxrepo/internal/utils"
)

const (
	// FileHeaderFormat opens the section of one file inside an artifact.
	FileHeaderFormat = ">>> FILE: %s <<<\n"

	sectionTerminator = "\n\n"

	logReadFailed = "file vanished or became unreadable since the scan, omitting it"
)

// Options configures Combine.
type Options struct {
	Logger *zap.Logger
}

// Artifact is the combined text and the totals of the files it contains.
type Artifact struct {
	Text   string       `json:"text"`
	Paths  []string     `json:"paths"`
	Totals types.Totals `json:"totals"`
}

// Combine expands the selection exactly like selection.ComputeTotals and writes
// every resulting file, in path order, as a header line with its root-relative
// slash path followed by its content. Files that can no longer be read are
// omitted from both the text and the totals.
func Combine(root string, fileStats types.FileStats, selectedPaths []string, excludedExtensions []string, options Options) (Artifact, error) {
	logger := utils.LoggerOrNop(options.Logger)
	var builder strings.Builder
	artifact := Artifact{Paths: []string{}}

	for _, filePath := range selection.ExpandSelection(fileStats, selectedPaths, excludedExtensions) {
		content, readError := os.ReadFile(filePath)
		if readError != nil {
			logger.Warn(logReadFailed, zap.String("path", filePath), zap.Error(readError))
			continue
		}
		fmt.Fprintf(&builder, FileHeaderFormat, utils.RelativePathOrSelf(filePath, root))
		builder.Write(content)
		builder.WriteString(sectionTerminator)

		fileStat := fileStats[filePath]
		artifact.Paths = append(artifact.Paths, filePath)
		artifact.Totals.Files++
		artifact.Totals.Bytes += fileStat.ByteSize
		artifact.Totals.Tokens += int64(fileStat.TokenCount)
	}

	artifact.Text = builder.String()
	return artifact, nil
}

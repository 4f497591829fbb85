package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ctxrepo/internal/combine"
	"github.com/temirov/ctxrepo/internal/config"
	"github.com/temirov/ctxrepo/internal/output"
	"github.com/temirov/ctxrepo/internal/scanner"
	"github.com/temirov/ctxrepo/internal/selection"
	"github.com/temirov/ctxrepo/internal/tree"
)

const (
	scanUse              = "scan [path]"
	scanShortDescription = "summarize files by extension"
	scanLongDescription  = `Walk the repository once and report, for every extension, the number of
readable text files with their total bytes and tokens. Binary files, files that are
not valid UTF-8 and unreadable files are counted as skipped.`
	scanUsageExample = `  # Summarize the current directory
  ctxrepo scan

  # JSON summary ignoring vendored code, counted with a HuggingFace tokenizer
  ctxrepo scan --format json -e vendor/ --tokenizer-file tokenizer.json ./project`

	treeUse              = "tree [path]"
	treeShortDescription = "display the repository tree with sizes"
	treeLongDescription  = `Render the directory tree of the repository. Files carry their byte and
token counts, skipped files are marked, directories are listed before files.`
	treeUsageExample = `  # Render the tree in XML format
  ctxrepo tree --format xml ./project`

	totalsUse              = "totals [path]"
	totalsShortDescription = "total a selection of files and directories"
	totalsLongDescription  = `Compute the file count, bytes and tokens of a selection. Selected
directories include every file beneath them, each file counts once, and files whose
extension is excluded are left out. Without --select the whole repository is selected.`
	totalsUsageExample = `  # Total the src directory and README.md without test data
  ctxrepo totals --select src --select README.md --exclude-ext .json

  # Exclude files without an extension
  ctxrepo totals --exclude-ext "(no extension)"`

	combineUse              = "combine [path]"
	combineShortDescription = "concatenate a selection into one text artifact"
	combineLongDescription  = `Concatenate the selected files, each under a ">>> FILE: <path> <<<" header,
into one text that can be pasted into a prompt. Selection rules match the totals command.`
	combineUsageExample = `  # Combine Go sources and copy them to the clipboard
  ctxrepo combine --select internal --exclude-ext .md --clipboard`

	selectFlagName           = "select"
	selectFlagDescription    = "selected file or directory, relative to the repository root (repeatable)"
	excludeExtFlagName       = "exclude-ext"
	excludeExtDescription    = "excluded extension key such as .txt or \"(no extension)\" (repeatable)"
	clipboardFlagName        = "clipboard"
	clipboardFlagDescription = "copy the combined text to the system clipboard"

	logClipboardCopied = "combined text copied to clipboard"
)

type selectionFlags struct {
	selections         []string
	excludedExtensions []string
}

func addSelectionFlags(command *cobra.Command, flags *selectionFlags) {
	command.Flags().StringArrayVar(&flags.selections, selectFlagName, nil, selectFlagDescription)
	command.Flags().StringArrayVar(&flags.excludedExtensions, excludeExtFlagName, nil, excludeExtDescription)
}

// createScanCommand returns the scan subcommand.
func (app *application) createScanCommand() *cobra.Command {
	var flags scanFlags
	scanCommand := &cobra.Command{
		Use:     scanUse,
		Short:   scanShortDescription,
		Long:    scanLongDescription,
		Example: scanUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := resolveScanSettings(command, flags, app.configuration.Scan)
			if settingsError != nil {
				return settingsError
			}
			result, scanError := app.scan(command.Context(), rootArgument(arguments), settings)
			if scanError != nil {
				return scanError
			}
			rendered, renderError := output.RenderScan(settings.format, result)
			if renderError != nil {
				return renderError
			}
			_, writeError := fmt.Fprint(command.OutOrStdout(), rendered)
			return writeError
		},
	}
	addScanFlags(scanCommand, &flags)
	return scanCommand
}

// createTreeCommand returns the tree subcommand.
func (app *application) createTreeCommand() *cobra.Command {
	var flags scanFlags
	treeCommand := &cobra.Command{
		Use:     treeUse,
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := resolveScanSettings(command, flags, app.configuration.Scan)
			if settingsError != nil {
				return settingsError
			}
			result, scanError := app.scan(command.Context(), rootArgument(arguments), settings)
			if scanError != nil {
				return scanError
			}
			filter, filterError := scanner.NewPathFilter(result.Root, settings.exclusions, settings.useGitignore)
			if filterError != nil {
				return filterError
			}
			builder := tree.Builder{Filter: filter, Logger: app.logger}
			rootNode, buildError := builder.BuildFromScan(result)
			if buildError != nil {
				return buildError
			}
			rendered, renderError := output.RenderTree(settings.format, rootNode)
			if renderError != nil {
				return renderError
			}
			_, writeError := fmt.Fprint(command.OutOrStdout(), rendered)
			return writeError
		},
	}
	addScanFlags(treeCommand, &flags)
	return treeCommand
}

// createTotalsCommand returns the totals subcommand.
func (app *application) createTotalsCommand() *cobra.Command {
	var flags scanFlags
	var selected selectionFlags
	totalsCommand := &cobra.Command{
		Use:     totalsUse,
		Short:   totalsShortDescription,
		Long:    totalsLongDescription,
		Example: totalsUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := resolveScanSettings(command, flags, app.configuration.Scan)
			if settingsError != nil {
				return settingsError
			}
			result, scanError := app.scan(command.Context(), rootArgument(arguments), settings)
			if scanError != nil {
				return scanError
			}
			totals := selection.ComputeTotals(result.Files, resolveSelection(result.Root, selected.selections), selected.excludedExtensions)
			rendered, renderError := output.RenderTotals(settings.format, totals)
			if renderError != nil {
				return renderError
			}
			_, writeError := fmt.Fprint(command.OutOrStdout(), rendered)
			return writeError
		},
	}
	addScanFlags(totalsCommand, &flags)
	addSelectionFlags(totalsCommand, &selected)
	return totalsCommand
}

// createCombineCommand returns the combine subcommand.
func (app *application) createCombineCommand() *cobra.Command {
	var flags scanFlags
	var selected selectionFlags
	var copyToClipboard bool
	combineCommand := &cobra.Command{
		Use:     combineUse,
		Short:   combineShortDescription,
		Long:    combineLongDescription,
		Example: combineUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := resolveScanSettings(command, flags, app.configuration.Scan)
			if settingsError != nil {
				return settingsError
			}
			result, scanError := app.scan(command.Context(), rootArgument(arguments), settings)
			if scanError != nil {
				return scanError
			}
			artifact, combineError := combine.Combine(result.Root, result.Files, resolveSelection(result.Root, selected.selections), selected.excludedExtensions, combine.Options{Logger: app.logger})
			if combineError != nil {
				return combineError
			}
			rendered, renderError := output.RenderArtifact(settings.format, artifact)
			if renderError != nil {
				return renderError
			}

			shouldCopy := config.BoolValue(app.configuration.Scan.Clipboard, false)
			if command.Flags().Changed(clipboardFlagName) {
				shouldCopy = copyToClipboard
			}
			if shouldCopy {
				if copyError := app.copier.Copy(rendered); copyError != nil {
					return copyError
				}
				app.logger.Info(logClipboardCopied, zap.Int("files", artifact.Totals.Files), zap.Int64("bytes", artifact.Totals.Bytes))
			}
			_, writeError := fmt.Fprint(command.OutOrStdout(), rendered)
			return writeError
		},
	}
	addScanFlags(combineCommand, &flags)
	addSelectionFlags(combineCommand, &selected)
	registerBooleanFlag(combineCommand.Flags(), &copyToClipboard, clipboardFlagName, false, clipboardFlagDescription)
	return combineCommand
}

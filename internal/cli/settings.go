package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ctxrepo/internal/config"
	"github.com/temirov/ctxrepo/internal/scanner"
	"github.com/temirov/ctxrepo/internal/tokenizer"
	"github.com/temirov/ctxrepo/internal/types"
)

const (
	formatFlagName        = "format"
	modelFlagName         = "model"
	tokenizerFileFlagName = "tokenizer-file"
	exclusionFlagName     = "exclude"
	exclusionShorthand    = "e"
	gitignoreFlagName     = "gitignore"

	formatFlagDescription        = "output format (raw, json, xml)"
	modelFlagDescription         = "tokenizer model: an OpenAI model, hf:<hub model>, or words"
	tokenizerFileFlagDescription = "HuggingFace tokenizer.json used instead of --model"
	exclusionFlagDescription     = "exclude path pattern (repeatable)"
	gitignoreFlagDescription     = "also exclude paths matched by the root .gitignore"

	defaultPath = "."

	invalidFormatMessage = "invalid format value '%s'"
	logScanFailed        = "scan failed"
	logTokenizerResolved = "tokenizer resolved"
)

// scanFlags holds the raw flag values shared by scanning commands.
type scanFlags struct {
	format        string
	model         string
	tokenizerFile string
	exclusions    []string
	useGitignore  bool
}

// scanSettings is the effective configuration after merging files and flags.
type scanSettings struct {
	format        string
	model         string
	tokenizerFile string
	exclusions    []string
	useGitignore  bool
}

func addScanFlags(command *cobra.Command, flags *scanFlags) {
	command.Flags().StringVar(&flags.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	command.Flags().StringVar(&flags.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	command.Flags().StringVar(&flags.tokenizerFile, tokenizerFileFlagName, "", tokenizerFileFlagDescription)
	command.Flags().StringArrayVarP(&flags.exclusions, exclusionFlagName, exclusionShorthand, nil, exclusionFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.useGitignore, gitignoreFlagName, false, gitignoreFlagDescription)
}

// resolveScanSettings applies configuration values first and then every flag
// that was set explicitly on the command line.
func resolveScanSettings(command *cobra.Command, flags scanFlags, configuration config.ScanConfiguration) (scanSettings, error) {
	settings := scanSettings{
		format:        types.FormatRaw,
		model:         tokenizer.DefaultModel,
		tokenizerFile: configuration.Tokens.TokenizerFile,
		exclusions:    configuration.Paths.Exclude,
		useGitignore:  config.BoolValue(configuration.Paths.UseGitignore, false),
	}
	if configuration.Format != "" {
		settings.format = configuration.Format
	}
	if configuration.Tokens.Model != "" {
		settings.model = configuration.Tokens.Model
	}

	changed := command.Flags().Changed
	if changed(formatFlagName) {
		settings.format = flags.format
	}
	if changed(modelFlagName) {
		settings.model = flags.model
	}
	if changed(tokenizerFileFlagName) {
		settings.tokenizerFile = flags.tokenizerFile
	}
	if changed(exclusionFlagName) {
		settings.exclusions = append(append([]string{}, settings.exclusions...), flags.exclusions...)
	}
	if changed(gitignoreFlagName) {
		settings.useGitignore = flags.useGitignore
	}

	settings.format = strings.ToLower(strings.TrimSpace(settings.format))
	if !isSupportedFormat(settings.format) {
		return scanSettings{}, fmt.Errorf(invalidFormatMessage, settings.format)
	}
	return settings, nil
}

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatXML:
		return true
	default:
		return false
	}
}

func (app *application) scanOptions(settings scanSettings) (scanner.Options, error) {
	counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: settings.model, TokenizerFile: settings.tokenizerFile})
	if counterError != nil {
		return scanner.Options{}, counterError
	}
	app.logger.Debug(logTokenizerResolved, zap.String("model", resolvedModel), zap.String("counter", counter.Name()))
	return scanner.Options{
		TokenCounter:   counter,
		IgnorePatterns: settings.exclusions,
		UseGitignore:   settings.useGitignore,
		Logger:         app.logger,
	}, nil
}

func (app *application) scan(ctx context.Context, rootArgument string, settings scanSettings) (types.ScanResult, error) {
	options, optionsError := app.scanOptions(settings)
	if optionsError != nil {
		return types.ScanResult{}, optionsError
	}
	result, scanError := scanner.Scan(ctx, rootArgument, options)
	if scanError != nil {
		app.logger.Error(logScanFailed, zap.String("path", rootArgument), zap.Error(scanError))
		return types.ScanResult{}, scanError
	}
	return result, nil
}

func rootArgument(arguments []string) string {
	if len(arguments) == 0 {
		return defaultPath
	}
	return arguments[0]
}

// resolveSelection maps --select values onto absolute paths below root. An empty
// selection selects the whole repository.
func resolveSelection(root string, selections []string) []string {
	if len(selections) == 0 {
		return []string{root}
	}
	resolved := make([]string, 0, len(selections))
	for _, selection := range selections {
		if filepath.IsAbs(selection) {
			resolved = append(resolved, filepath.Clean(selection))
			continue
		}
		resolved = append(resolved, filepath.Join(root, selection))
	}
	return resolved
}

// Package cli provides the ctxrepo command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ctxrepo/internal/config"
	"github.com/temirov/ctxrepo/internal/services/clipboard"
	"github.com/temirov/ctxrepo/internal/utils"
)

const (
	configFlagName         = "config"
	verboseFlagName        = "verbose"
	versionFlagName        = "version"
	versionTemplate        = "ctxrepo version: %s\n"
	rootUse                = "ctxrepo"
	rootShortDescription   = "ctxrepo measures repositories for language model context"
	configFlagDescription  = "path to a configuration file (default ./" + utils.ConfigFileName + ")"
	verboseFlagDescription = "log debug messages, including every skipped file"
	versionFlagDescription = "display application version"
	rootLongDescription    = `ctxrepo scans a repository, groups its readable text files by extension and
reports their byte and token counts. Selections of files and directories can be
totaled with extensions excluded, combined into one text artifact, or explored
in the browser with the serve command.
Use --format to select raw, json, or xml output and --model to choose the tokenizer.`
)

var errVersionRequested = errors.New("version requested")

// application carries the state shared by every subcommand of one invocation.
type application struct {
	configurationPath string
	verbose           bool
	showVersion       bool

	logger             *zap.Logger
	configuration      config.ApplicationConfiguration
	copier             clipboard.Copier
	restoreStandardLog func()
}

func newApplication(copier clipboard.Copier) *application {
	return &application{copier: copier, logger: zap.NewNop()}
}

// Execute runs the ctxrepo application.
func Execute(ctx context.Context) error {
	app := newApplication(clipboard.NewService())
	defer app.release()
	rootCommand := app.rootCommand()
	rootCommand.SetArgs(normalizeBooleanArguments(rootCommand, os.Args[1:]))
	executionError := rootCommand.ExecuteContext(ctx)
	if errors.Is(executionError, errVersionRequested) {
		return nil
	}
	return executionError
}

func (app *application) rootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if app.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return errVersionRequested
			}
			return app.initialize()
		},
	}
	rootCommand.PersistentFlags().StringVar(&app.configurationPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &app.verbose, verboseFlagName, false, verboseFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &app.showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		app.createScanCommand(),
		app.createTreeCommand(),
		app.createTotalsCommand(),
		app.createCombineCommand(),
		app.createServeCommand(),
		app.createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func (app *application) initialize() error {
	logger, loggerError := utils.NewApplicationLogger(app.verbose)
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	app.logger = logger
	restoreStandardLog, redirectError := utils.RedirectStandardLog(logger)
	if redirectError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, redirectError)
	}
	app.restoreStandardLog = restoreStandardLog

	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: app.configurationPath})
	if configurationError != nil {
		return configurationError
	}
	app.configuration = configuration
	return nil
}

// release restores the standard library logger redirected by initialize.
func (app *application) release() {
	if app.restoreStandardLog != nil {
		app.restoreStandardLog()
		app.restoreStandardLog = nil
	}
}

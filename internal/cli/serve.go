package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/ctxrepo/internal/config"
	"github.com/temirov/ctxrepo/internal/session"
	"github.com/temirov/ctxrepo/internal/web"
)

const (
	serveUse              = "serve"
	serveShortDescription = "serve the browser interface"
	serveLongDescription  = `Start the web interface. Clone a repository by URL or open a local
directory with --open, then pick files and excluded extensions to watch the totals
update and combine the selection.`
	serveUsageExample = `  # Serve on the default address
  ctxrepo serve

  # Serve an existing checkout on all interfaces
  ctxrepo serve --address 0.0.0.0:8080 --open ./project`

	addressFlagName                = "address"
	addressFlagDescription         = "listen address"
	repositoriesDirFlagName        = "repositories-dir"
	repositoriesDirFlagDescription = "directory receiving cloned repositories"
	shutdownTimeoutFlagName        = "shutdown-timeout"
	shutdownTimeoutFlagDescription = "graceful shutdown timeout"
	openFlagName                   = "open"
	openFlagDescription            = "local directory to load at startup"

	serveAnnounceFormat = "Serving ctxrepo on http://%s\n"

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a default ` + "`.ctxrepo.yaml`" + ` into the working directory, or into
~/.ctxrepo with --global. Existing files are kept unless --force is given.`
	globalFlagName        = "global"
	globalFlagDescription = "write the global configuration"
	forceFlagName         = "force"
	forceFlagDescription  = "overwrite an existing configuration file"
	initWrittenFormat     = "Configuration written to %s\n"
)

type serveFlags struct {
	address               string
	repositoriesDirectory string
	shutdownTimeout       time.Duration
	openPath              string
}

type serveSettings struct {
	address               string
	repositoriesDirectory string
	shutdownTimeout       time.Duration
}

func resolveServeSettings(command *cobra.Command, flags serveFlags, configuration config.ServeConfiguration) serveSettings {
	settings := serveSettings{
		address:               web.DefaultAddress,
		repositoriesDirectory: session.DefaultRepositoriesDirectory,
		shutdownTimeout:       web.DefaultShutdownTimeout,
	}
	if configuration.Address != "" {
		settings.address = configuration.Address
	}
	if configuration.RepositoriesDirectory != "" {
		settings.repositoriesDirectory = configuration.RepositoriesDirectory
	}
	if configuration.ShutdownTimeout > 0 {
		settings.shutdownTimeout = configuration.ShutdownTimeout
	}
	if command.Flags().Changed(addressFlagName) {
		settings.address = flags.address
	}
	if command.Flags().Changed(repositoriesDirFlagName) {
		settings.repositoriesDirectory = flags.repositoriesDirectory
	}
	if command.Flags().Changed(shutdownTimeoutFlagName) {
		settings.shutdownTimeout = flags.shutdownTimeout
	}
	return settings
}

// createServeCommand returns the serve subcommand.
func (app *application) createServeCommand() *cobra.Command {
	var flags scanFlags
	var serving serveFlags
	serveCommand := &cobra.Command{
		Use:     serveUse,
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := resolveScanSettings(command, flags, app.configuration.Scan)
			if settingsError != nil {
				return settingsError
			}
			options, optionsError := app.scanOptions(settings)
			if optionsError != nil {
				return optionsError
			}
			effective := resolveServeSettings(command, serving, app.configuration.Serve)
			manager := session.NewManager(session.Config{
				RepositoriesDirectory: effective.repositoriesDirectory,
				ScanOptions:           options,
			}, app.logger)

			if serving.openPath != "" {
				if _, openError := manager.Open(command.Context(), serving.openPath); openError != nil {
					return openError
				}
			}

			server := web.NewServer(web.Config{Address: effective.address, ShutdownTimeout: effective.shutdownTimeout}, manager, app.logger)
			return server.Run(command.Context(), func(address string) {
				fmt.Fprintf(command.OutOrStdout(), serveAnnounceFormat, address)
			})
		},
	}
	addScanFlags(serveCommand, &flags)
	serveCommand.Flags().StringVar(&serving.address, addressFlagName, web.DefaultAddress, addressFlagDescription)
	serveCommand.Flags().StringVar(&serving.repositoriesDirectory, repositoriesDirFlagName, session.DefaultRepositoriesDirectory, repositoriesDirFlagDescription)
	serveCommand.Flags().DurationVar(&serving.shutdownTimeout, shutdownTimeoutFlagName, web.DefaultShutdownTimeout, shutdownTimeoutFlagDescription)
	serveCommand.Flags().StringVar(&serving.openPath, openFlagName, "", openFlagDescription)
	return serveCommand
}

// createInitCommand returns the init subcommand.
func (app *application) createInitCommand() *cobra.Command {
	var global bool
	var force bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			_, writeError := fmt.Fprintf(command.OutOrStdout(), initWrittenFormat, path)
			return writeError
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

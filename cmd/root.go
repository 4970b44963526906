package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/cue-splitter/internal/app"
	"github.com/oshokin/cue-splitter/internal/config"
	"github.com/oshokin/cue-splitter/internal/logger"
	"github.com/oshokin/cue-splitter/internal/utils"
	"github.com/oshokin/cue-splitter/internal/version"
)

var (
	// ErrDirectoryNotFound indicates that the directory argument does not exist.
	ErrDirectoryNotFound = errors.New("directory does not exist")
	// ErrNotADirectory indicates that the directory argument is a file.
	ErrNotADirectory = errors.New("not a directory")
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "cue-splitter [flags] <directory>",
		Short: "Split single-file FLAC albums into tracks using their CUE sheets.",
		Long: `CUE Splitter finds FLAC images paired with CUE sheets and splits them
into one FLAC file per track with embedded metadata.

By default it only lists what would be done. Use --execute to split.
The original FLAC is kept unless --delete is given; CUE sheets are never deleted.

Requires ffmpeg in PATH (or ffmpeg_path in the configuration file).`,
		Version:          version.Full(),
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, args []string) {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
			}

			logger.SetLevel(appConfig.ParsedLogLevel)

			directory, err := resolveDirectory(args[0])
			if err != nil {
				logger.Fatalf(cmd.Context(), "Error: %v", err)
			}

			app.ExecuteRootCommand(cmd.Context(), appConfig, directory)
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	done := make(chan struct{})

	go func() {
		defer close(done)
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// The command cleans up and prints its summary before returning.
		// A second signal gets the default handling and exits at once.
		stop()
		<-done
	}
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmdFlags := rootCmd.Flags()

	rootCmdFlags.Bool(
		"execute",
		false,
		"actually split files (default is a dry run).")

	rootCmdFlags.StringP(
		"output",
		"o",
		"",
		"output directory; the source folder structure is mirrored under it (default is next to the source).")

	rootCmdFlags.Bool(
		"delete",
		false,
		"delete the original FLAC after a successful split; CUE files are kept.")

	rootCmdFlags.BoolP(
		"verbose",
		"v",
		false,
		"show individual tracks.")

	rootCmdFlags.BoolP(
		"yes",
		"y",
		false,
		"answer prompts automatically (delete split albums, keep unsplit ones).")

	rootCmdFlags.String(
		"log-level",
		"",
		"log level: debug, info, warn, error.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if level, ok := logger.ParseLogLevel(appConfig.LogLevel); ok {
		logger.SetLevel(level)
	}
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("execute"); flag != nil && flag.Changed {
		cfg.Execute, _ = flags.GetBool("execute")
	}

	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("delete"); flag != nil && flag.Changed {
		cfg.DeleteSource, _ = flags.GetBool("delete")
	}

	if flag := flags.Lookup("verbose"); flag != nil && flag.Changed {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}

	if flag := flags.Lookup("yes"); flag != nil && flag.Changed {
		cfg.AssumeYes, _ = flags.GetBool("yes")
	}

	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	return config.ValidateConfig(cfg)
}

// resolveDirectory expands the directory argument and checks that it is an existing directory.
func resolveDirectory(value string) (string, error) {
	directory, err := utils.ExpandPath(value)
	if err != nil {
		return "", fmt.Errorf("failed to expand '%s': %w", value, err)
	}

	info, err := os.Stat(directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, value)
		}

		return "", fmt.Errorf("failed to access '%s': %w", value, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotADirectory, value)
	}

	return directory, nil
}

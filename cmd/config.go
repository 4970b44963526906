package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/cue-splitter/internal/app"
	"github.com/oshokin/cue-splitter/internal/config"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration file commands",
		// Overrides the root hook: these commands must work without a valid configuration.
		PersistentPreRun: func(*cobra.Command, []string) {},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Long: `Writes a configuration file with every setting at its default value.

The file is written to '` + config.DefaultConfigFilename + `' in the current directory
unless a path is given. An existing file is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := config.DefaultConfigFilename
			if len(args) > 0 {
				path = args[0]
			}

			app.ExecuteConfigInitCommand(cmd.Context(), path)
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(configCmd)
}

// Package commands implements the CLI commands for the kiln build tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Build artifacts from a graph of tasks, skipping what already exists",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP(config.KeyFile, "f", config.DefaultFile, "Path to the taskfile")
	rootCmd.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "Print a trace line for every node")
	rootCmd.PersistentFlags().BoolP(config.KeyDryRun, "n", false, "Report what would run without running it")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// runOptions merges flags, environment and the optional target argument.
func runOptions(cmd *cobra.Command, args []string) (app.RunOptions, error) {
	settings, err := config.LoadSettings(cmd.Flags())
	if err != nil {
		return app.RunOptions{}, err
	}

	opts := app.RunOptions{
		File:             settings.File,
		Interactive:      settings.Interactive,
		ExecutionOptions: settings.Options(),
	}
	if len(args) > 0 {
		opts.Target = args[0]
	}
	return opts, nil
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

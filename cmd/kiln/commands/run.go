package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/adapters/config"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [target]",
		Short: "Build a task and everything it requires",
		Long: "Build a task and everything it requires, in dependency order.\n" +
			"Tasks whose output already exists are skipped. Without a target the taskfile's default task is built.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd, args)
			if err != nil {
				return err
			}
			return c.app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolP(config.KeyInteractive, "i", false, "Follow the run in an interactive terminal view")
	return cmd
}

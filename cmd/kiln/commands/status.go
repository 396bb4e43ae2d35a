package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [target]",
		Short: "Show which artifacts of a task already exist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd, args)
			if err != nil {
				return err
			}

			statuses, err := c.app.Status(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range statuses {
				mark := "missing"
				if s.Complete {
					mark = "complete"
				}
				if _, err := fmt.Fprintf(out, "%-8s %s\n", mark, s.ID); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [steps...]",
		Short: "Run the named steps of the project",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return c.app.Run(cmd.Context(), args, app.RunOptions{
				DryRun: dryRun,
				Set:    overrides(cmd),
			})
		},
	}
	cmd.Flags().BoolP("dry-run", "n", false, "Print the commands without running them")
	return cmd
}

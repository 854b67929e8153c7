package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newCmdlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmdline <builder> <sources...>",
		Short: "Print the command lines a builder would run",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // builder and at least one source
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetString("output")
			lines, err := c.app.CommandLine(args[0], args[1:], target, overrides(cmd))
			if err != nil {
				return err
			}
			for _, line := range lines {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Target file (derived from the sources when empty)")
	return cmd
}

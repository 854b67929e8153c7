package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <files...>",
		Short: "List the dependencies the scanners find in files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := c.app.Scan(cmd.Context(), args, app.ScanOptions{Set: overrides(cmd)})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range reports {
				_, _ = fmt.Fprintf(out, "%s (%s)\n", r.File, r.Scanner)
				for _, dep := range r.Dependencies {
					_, _ = fmt.Fprintf(out, "  %s\n", dep)
				}
				for _, label := range r.Requested {
					_, _ = fmt.Fprintf(out, "  requested %s\n", label)
				}
			}
			return nil
		},
	}
}

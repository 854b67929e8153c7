package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect archives written by the Archive builder",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls <file>",
		Short: "List the entries of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.app.ListArchive(args[0])
			if err != nil {
				return err
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %8d %016x %s\n", e.Mode, e.Size, e.Digest, e.Name)
			}
			return nil
		},
	})

	return cmd
}

package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/ui/style"
)

func (c *CLI) newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools with their builders and scanners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := c.app.Tools()
			if err != nil {
				return err
			}

			cell := lipgloss.NewStyle().Padding(0, 1)
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(style.Ash)).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return cell.Bold(true)
					}
					return cell
				}).
				Headers("TOOL", "AVAILABLE", "BUILDERS", "SCANNERS")

			for _, info := range infos {
				available := "no"
				if info.Available {
					available = "yes"
				}
				t.Row(info.Name, available, strings.Join(info.Builders, ", "), strings.Join(info.Scanners, ", "))
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

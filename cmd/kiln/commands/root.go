// Package commands implements the CLI commands for the kiln build tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/tools/archive"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	logs    LogSettings
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, stepNames []string, opts app.RunOptions) error
	Scan(ctx context.Context, files []string, opts app.ScanOptions) ([]app.ScanReport, error)
	CommandLine(builder string, sources []string, target string, set []string) ([]string, error)
	Tools() ([]app.ToolInfo, error)
	ListArchive(file string) ([]archive.Entry, error)
}

// LogSettings is implemented by loggers whose verbosity and format can be
// switched from the command line.
type LogSettings interface {
	SetVerbose(enable bool)
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Build web assets, firmware and documents from a project file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringArrayP("set", "s", nil, "Override an environment variable (KEY=VALUE)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Print debug output")
	rootCmd.PersistentFlags().Bool("json", false, "Write log output as JSON")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.logs == nil {
			return
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonOut, _ := cmd.Flags().GetBool("json")
		c.logs.SetVerbose(verbose)
		c.logs.SetJSON(jsonOut)
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newScanCmd())
	rootCmd.AddCommand(c.newCmdlineCmd())
	rootCmd.AddCommand(c.newArchiveCmd())
	rootCmd.AddCommand(c.newToolsCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// SetLogSettings lets the --verbose and --json flags reconfigure ls.
func (c *CLI) SetLogSettings(ls LogSettings) {
	c.logs = ls
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

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func overrides(cmd *cobra.Command) []string {
	set, _ := cmd.Flags().GetStringArray("set")
	return set
}

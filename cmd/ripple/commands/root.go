// Package commands implements the CLI commands for the ripple build tool.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/ripple/internal/adapters/settings"
	"go.trai.ch/ripple/internal/app"
	"go.trai.ch/ripple/internal/build"
)

// CLI represents the command line interface for ripple.
type CLI struct {
	components *app.Components
	rootCmd    *cobra.Command
	settings   *settings.Settings
	cwd        string
}

// New creates a new CLI instance with the given components.
func New(c *app.Components) *CLI {
	rootCmd := &cobra.Command{
		Use:           "ripple",
		Short:         "Incremental builds for declared file-based pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("file", "F", "", "Path to the declaration file (default: discovered ripple.yaml, ripple.hcl or ripple.toml)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("store", "", "Signature store backend: json or sqlite")

	cli := &CLI{
		components: c,
		rootCmd:    rootCmd,
	}
	rootCmd.PersistentPreRunE = cli.loadSettings

	rootCmd.AddCommand(cli.newBuildCmd())
	rootCmd.AddCommand(cli.newCleanCmd())
	rootCmd.AddCommand(cli.newGraphCmd())
	rootCmd.AddCommand(cli.newVersionCmd())

	return cli
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

// SetOutput sets the writer for help and version output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
}

// SetDir sets the directory discovery starts from. Used for testing.
func (c *CLI) SetDir(dir string) {
	c.cwd = dir
}

// loadSettings reads settings for the discovered project and applies the
// persistent flags on top.
func (c *CLI) loadSettings(cmd *cobra.Command, _ []string) error {
	if c.cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		c.cwd = wd
	}

	s, err := settings.Load(c.components.App.DiscoverRoot(c.cwd))
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		s.File, _ = flags.GetString("file")
	}
	if flags.Changed("log-format") {
		s.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("log-level") {
		s.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("store") {
		s.Store, _ = flags.GetString("store")
	}
	if flags.Lookup("jobs") != nil && flags.Changed("jobs") {
		s.Jobs, _ = flags.GetInt("jobs")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	c.components.ConfigureLogging(s)
	c.settings = s
	return nil
}

func (c *CLI) options() app.Options {
	return app.Options{
		Cwd:   c.cwd,
		File:  c.settings.File,
		Store: c.settings.Store,
		Jobs:  c.settings.Jobs,
	}
}

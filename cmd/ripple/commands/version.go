package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/ripple/internal/build"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		// Settings are not needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ripple version %s\n", build.Version)
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Bring targets up to date (default: all)",
		Long: "Build the given node ids, output paths or aliases and everything they depend on.\n" +
			"Nodes whose inputs, declaration and outputs are unchanged since their last successful run are skipped.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options()

			if clean, _ := cmd.Flags().GetBool("clean"); clean {
				return c.components.App.Clean(cmd.Context(), args, opts)
			}

			opts.Force, _ = cmd.Flags().GetBool("force")
			opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
			_, err := c.components.App.Build(cmd.Context(), args, opts)
			return err
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Rebuild every requested node regardless of staleness")
	cmd.Flags().BoolP("dry-run", "n", false, "Print what would be rebuilt without running anything")
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of stages run in parallel (default: number of CPUs)")
	cmd.Flags().Bool("clean", false, "Remove the outputs of the targets instead of building them")
	cmd.MarkFlagsMutuallyExclusive("clean", "force")
	cmd.MarkFlagsMutuallyExclusive("clean", "dry-run")
	return cmd
}

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [targets...]",
		Short: "Remove the outputs of targets (default: all)",
		Long:  "Remove the outputs of the given targets and forget their records. Dependencies are not cleaned.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.components.App.Clean(cmd.Context(), args, c.options())
		},
	}
}

func (c *CLI) newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [targets...]",
		Short: "Print the nodes a build would consider, in execution order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.components.App.Plan(cmd.Context(), args, c.options())
			return err
		},
	}
}

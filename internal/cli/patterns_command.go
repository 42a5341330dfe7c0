package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"workflow-intelligence/pkg/types"
)

// createPatternsCommand creates the 'patterns' command group.
func (c *CLI) createPatternsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect and search learned command patterns",
	}
	cmd.AddCommand(
		c.createPatternsListCommand(),
		c.createPatternsSearchCommand(),
	)
	return cmd
}

func (c *CLI) createPatternsListCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List learned patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			patterns := eng.Patterns()
			if status != "" {
				var filtered []*types.Pattern
				for _, p := range patterns {
					if string(p.Status) == status {
						filtered = append(filtered, p)
					}
				}
				patterns = filtered
			}
			return c.formatter().FormatPatterns(patterns)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, active, deprecated)")
	return cmd
}

func (c *CLI) createPatternsSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Semantic search over learned patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			results := eng.SearchPatterns(strings.Join(args, " "))
			patterns := make([]*types.Pattern, len(results))
			for i, r := range results {
				patterns[i] = r.Pattern
			}
			return c.formatter().FormatPatterns(patterns)
		},
	}
}

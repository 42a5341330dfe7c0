package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// createWorkflowsCommand creates the 'workflows' command group.
func (c *CLI) createWorkflowsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect and match workflow definitions",
	}
	cmd.AddCommand(
		c.createWorkflowsListCommand(),
		c.createWorkflowsMatchCommand(),
	)
	return cmd
}

func (c *CLI) createWorkflowsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List loaded workflow definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}
			workflows, err := eng.Workflows()
			if err != nil {
				return c.handleError(err)
			}
			return c.formatter().FormatWorkflows(workflows)
		},
	}
}

func (c *CLI) createWorkflowsMatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "match <command>...",
		Short: "Match a command history against workflow definitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			match, err := eng.MatchWorkflow(args)
			if err != nil {
				return c.handleError(err)
			}
			if match == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No workflow matched.")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (score %d, matched: %v)\n",
				match.Name, match.Score, match.MatchedCommands)
			return nil
		},
	}
}

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"workflow-intelligence/internal/gotcha"
)

// createGotchasCommand creates the 'gotchas' command group.
func (c *CLI) createGotchasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gotchas",
		Short: "Record and query known failure patterns",
	}
	cmd.AddCommand(
		c.createGotchasListCommand(),
		c.createGotchasAddCommand(),
		c.createGotchasQueryCommand(),
		c.createGotchasDeprecateCommand(),
	)
	return cmd
}

func (c *CLI) createGotchasListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all recorded gotchas",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			all := eng.Gotchas()
			results := make([]gotcha.QueryResult, len(all))
			for i, g := range all {
				results[i] = gotcha.QueryResult{Gotcha: g, Relevance: 1.0}
			}
			return c.formatter().FormatGotchas(results)
		},
	}
}

func (c *CLI) createGotchasAddCommand() *cobra.Command {
	var (
		context string
		reason  string
		source  string
	)

	cmd := &cobra.Command{
		Use:   "add <pattern>",
		Short: "Record a new gotcha",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			g, err := eng.RecordGotcha(strings.Join(args, " "), context, reason, source)
			if err != nil {
				return c.handleError(err)
			}
			return c.formatter().FormatGotchas([]gotcha.QueryResult{{Gotcha: g, Relevance: 1.0}})
		},
	}

	cmd.Flags().StringVarP(&context, "context", "c", "", "Context in which the failure occurs")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Why this pattern fails")
	cmd.Flags().StringVar(&source, "source", "manual", "Where the gotcha came from")
	return cmd
}

func (c *CLI) createGotchasQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query <context>",
		Short: "Find gotchas relevant to a context",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}
			return c.formatter().FormatGotchas(eng.QueryGotchas(strings.Join(args, " ")))
		},
	}
}

func (c *CLI) createGotchasDeprecateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deprecate <id>",
		Short: "Zero a gotcha's confidence so it stops surfacing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}
			if err := eng.DeprecateGotcha(args[0]); err != nil {
				return c.handleError(err)
			}
			return nil
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"workflow-intelligence/pkg/types"
)

// createQACommand creates the 'qa' command.
func (c *CLI) createQACommand() *cobra.Command {
	var (
		decision string
		issues   []string
		security []string
		context  string
	)

	cmd := &cobra.Command{
		Use:   "qa <pattern-id>",
		Short: "Apply a quality-gate verdict to a learned pattern",
		Long:  `Translate an external quality-gate verdict into pattern feedback: confidence adjustment, deprecation on chronic failure and gotcha creation on critical failure.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			result, err := eng.ProcessQAVerdict(args[0], &types.QAVerdict{
				GateDecision:      decision,
				BlockingIssues:    issues,
				SecurityChecklist: security,
			}, context)
			if err != nil {
				return c.handleError(err)
			}
			return c.formatter().FormatQAResult(result)
		},
	}

	cmd.Flags().StringVarP(&decision, "decision", "d", "pass", "Gate decision (pass, concerns, fail, waived)")
	cmd.Flags().StringSliceVar(&issues, "issue", nil, "Blocking issue (repeatable)")
	cmd.Flags().StringSliceVar(&security, "security", nil, "Failed security checklist item (repeatable)")
	cmd.Flags().StringVarP(&context, "context", "c", "", "Execution context for gotcha creation")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// createSessionCommand creates the 'session' command group for feeding the
// learning pipeline.
func (c *CLI) createSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Record session activity for pattern learning",
	}
	cmd.AddCommand(
		c.createSessionObserveCommand(),
		c.createSessionCompleteCommand(),
	)
	return cmd
}

func (c *CLI) createSessionObserveCommand() *cobra.Command {
	var agentID string

	cmd := &cobra.Command{
		Use:   "observe <session-id> <command>",
		Short: "Record one executed command in a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			result, err := eng.ObserveCommand(args[0], args[1], agentID)
			if err != nil {
				return c.handleError(err)
			}
			if result != nil && result.Stored {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Session closed; pattern %s stored (merged=%v)\n",
					result.Pattern.ID, result.Merged)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "Agent that executed the command")
	return cmd
}

func (c *CLI) createSessionCompleteCommand() *cobra.Command {
	var failed bool

	cmd := &cobra.Command{
		Use:   "complete <session-id>",
		Short: "Close a session and learn from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			result := eng.CompleteSession(args[0], !failed)
			if result.Stored {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pattern %s stored (merged=%v)\n",
					result.Pattern.ID, result.Merged)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Nothing learned: %s\n", result.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failed, "failed", false, "Mark the session as unsuccessful")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"workflow-intelligence/internal/suggest"
	"workflow-intelligence/pkg/types"
)

// createSuggestCommand creates the 'suggest' command.
func (c *CLI) createSuggestCommand() *cobra.Command {
	var (
		sessionID   string
		agentID     string
		lastCommand string
		history     []string
		storyPath   string
		workingDir  string
		uncommitted bool
		failing     bool
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest the next actions for the current session",
		Long:  `Suggest ranked next actions based on workflow definitions, learned patterns and project state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			result := eng.Suggest(suggest.ContextInput{
				SessionID:    sessionID,
				AgentID:      agentID,
				LastCommand:  lastCommand,
				LastCommands: history,
				StoryPath:    storyPath,
				WorkingDir:   workingDir,
				ProjectState: types.ProjectState{
					HasUncommittedChanges: uncommitted,
					FailingTests:          failing,
				},
			})
			return c.formatter().FormatSuggestions(result)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id for history recovery")
	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "Active agent id")
	cmd.Flags().StringVarP(&lastCommand, "last", "l", "", "Most recent command")
	cmd.Flags().StringSliceVar(&history, "history", nil, "Recent command history, oldest first")
	cmd.Flags().StringVar(&storyPath, "story", "", "Active story file path")
	cmd.Flags().StringVar(&workingDir, "dir", "", "Working directory for git branch detection")
	cmd.Flags().BoolVar(&uncommitted, "uncommitted", false, "Working tree has uncommitted changes")
	cmd.Flags().BoolVar(&failing, "failing-tests", false, "Test suite is currently failing")

	return cmd
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"workflow-intelligence/pkg/types"
)

// tasksFile is the on-disk shape accepted by 'wfi waves'.
type tasksFile struct {
	WorkflowID string       `json:"workflow_id" yaml:"workflow_id"`
	Tasks      []types.Task `json:"tasks" yaml:"tasks"`
}

// createWavesCommand creates the 'waves' command.
func (c *CLI) createWavesCommand() *cobra.Command {
	var workflowID string

	cmd := &cobra.Command{
		Use:   "waves <tasks-file>",
		Short: "Group a task graph into parallel execution waves",
		Long:  `Analyze a task dependency graph (JSON or YAML) and report execution waves, the critical path and the parallelization gain.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.getEngine()
			if err != nil {
				return c.handleError(err)
			}

			file, err := loadTasksFile(args[0])
			if err != nil {
				return c.handleError(err)
			}
			if workflowID == "" {
				workflowID = file.WorkflowID
			}

			analysis, err := eng.AnalyzeWaves(workflowID, file.Tasks)
			if err != nil {
				return c.handleError(err)
			}
			return c.formatter().FormatWaves(analysis)
		},
	}

	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "Workflow id for the analysis")
	return cmd
}

func loadTasksFile(path string) (*tasksFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tasks file: %w", err)
	}

	var file tasksFile
	if jsonErr := json.Unmarshal(data, &file); jsonErr == nil {
		return &file, nil
	}
	if yamlErr := yaml.Unmarshal(data, &file); yamlErr != nil {
		return nil, fmt.Errorf("parsing tasks file %s: %w", path, yamlErr)
	}
	return &file, nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"workflow-intelligence/internal/gotcha"
	"workflow-intelligence/pkg/types"
)

// OutputFormatter renders engine results for the terminal.
type OutputFormatter interface {
	FormatSuggestions(result *types.SuggestionResult) error
	FormatWaves(analysis *types.WaveAnalysis) error
	FormatPatterns(patterns []*types.Pattern) error
	FormatGotchas(results []gotcha.QueryResult) error
	FormatQAResult(result *types.QAResult) error
	FormatWorkflows(workflows []types.Workflow) error
	FormatError(err error) error
}

// TableFormatter renders ASCII tables.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a table formatter.
func NewTableFormatter(w io.Writer) OutputFormatter {
	return &TableFormatter{writer: w}
}

func (f *TableFormatter) FormatSuggestions(result *types.SuggestionResult) error {
	if result.Workflow != "" {
		_, _ = fmt.Fprintln(f.writer, headerStyle.Render("Workflow: "+result.Workflow))
	}
	if result.CurrentState != "" {
		_, _ = fmt.Fprintln(f.writer, dimStyle.Render("State: "+result.CurrentState))
	}
	if result.IsUncertain {
		_, _ = fmt.Fprintln(f.writer, warnStyle.Render("Low confidence; treat these as hints."))
	}
	if result.Message != "" {
		_, _ = fmt.Fprintln(f.writer, result.Message)
	}
	if len(result.Suggestions) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No suggestions.")
		return nil
	}

	table := tablewriter.NewWriter(f.writer)
	table.Header("#", "Command", "Args", "Confidence", "Source", "Description")
	for i, s := range result.Suggestions {
		_ = table.Append([]string{
			strconv.Itoa(i + 1),
			s.Command,
			s.Args,
			fmt.Sprintf("%.2f", s.Confidence),
			string(s.Source),
			truncate(s.Description, 50),
		})
	}
	return table.Render()
}

func (f *TableFormatter) FormatWaves(analysis *types.WaveAnalysis) error {
	table := tablewriter.NewWriter(f.writer)
	table.Header("Wave", "Tasks", "Parallel", "Duration (min)")
	for _, w := range analysis.Waves {
		_ = table.Append([]string{
			strconv.Itoa(w.WaveNumber),
			strings.Join(w.Tasks, ", "),
			strconv.FormatBool(w.Parallel),
			strconv.Itoa(w.EstimatedDuration),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(f.writer, "\nSequential: %d min | Parallel: %d min | Gain: %d%% | Speedup: %.2fx\n",
		analysis.Metrics.SequentialTime,
		analysis.Metrics.ParallelTime,
		analysis.OptimizationGain,
		analysis.Metrics.Speedup)
	if len(analysis.CriticalPath) > 0 {
		_, _ = fmt.Fprintf(f.writer, "Critical path: %s\n", strings.Join(analysis.CriticalPath, " -> "))
	}
	return nil
}

func (f *TableFormatter) FormatPatterns(patterns []*types.Pattern) error {
	if len(patterns) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No patterns learned yet.")
		return nil
	}

	table := tablewriter.NewWriter(f.writer)
	table.Header("ID", "Sequence", "Status", "Confidence", "Occurrences", "Success")
	for _, p := range patterns {
		_ = table.Append([]string{
			truncateID(p.ID),
			truncate(strings.Join(p.Sequence, " -> "), 50),
			string(p.Status),
			fmt.Sprintf("%.2f", p.Confidence),
			strconv.Itoa(p.Occurrences),
			fmt.Sprintf("%.0f%%", p.SuccessRate*100),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(f.writer, "\nTotal: %d patterns\n", len(patterns))
	return nil
}

func (f *TableFormatter) FormatGotchas(results []gotcha.QueryResult) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No gotchas found.")
		return nil
	}

	table := tablewriter.NewWriter(f.writer)
	table.Header("ID", "Pattern", "Context", "Confidence", "Relevance", "Seen")
	for _, r := range results {
		_ = table.Append([]string{
			truncateID(r.Gotcha.ID),
			truncate(r.Gotcha.Pattern, 35),
			truncate(r.Gotcha.Context, 35),
			fmt.Sprintf("%.2f", r.Gotcha.Confidence),
			fmt.Sprintf("%.2f", r.Relevance),
			strconv.Itoa(r.Gotcha.Occurrences),
		})
	}
	return table.Render()
}

func (f *TableFormatter) FormatQAResult(result *types.QAResult) error {
	if len(result.PatternsAffected) > 0 {
		_, _ = fmt.Fprintf(f.writer, "Patterns affected: %s\n", strings.Join(result.PatternsAffected, ", "))
	}
	if len(result.GotchasCreated) > 0 {
		_, _ = fmt.Fprintf(f.writer, "Gotchas created: %s\n", strings.Join(result.GotchasCreated, ", "))
	}
	for _, action := range result.Actions {
		_, _ = fmt.Fprintf(f.writer, "- %s\n", action)
	}
	if len(result.Suggestions) > 0 {
		_, _ = fmt.Fprintln(f.writer, headerStyle.Render("Alternatives:"))
		for _, s := range result.Suggestions {
			_, _ = fmt.Fprintf(f.writer, "  %s (%.2f) %s\n", s.Command, s.Confidence, s.Description)
		}
	}
	if len(result.PatternsAffected) == 0 && len(result.GotchasCreated) == 0 && len(result.Actions) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No changes.")
	}
	return nil
}

func (f *TableFormatter) FormatWorkflows(workflows []types.Workflow) error {
	if len(workflows) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No workflow definitions loaded.")
		return nil
	}

	table := tablewriter.NewWriter(f.writer)
	table.Header("Name", "States", "Description")
	for _, wf := range workflows {
		_ = table.Append([]string{
			wf.Name,
			strconv.Itoa(len(wf.Transitions)),
			truncate(wf.Description, 60),
		})
	}
	return table.Render()
}

func (f *TableFormatter) FormatError(err error) error {
	_, _ = color.New(color.FgRed).Fprintf(f.writer, "Error: %s\n", err.Error())
	return nil
}

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	writer io.Writer
	pretty bool
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(w io.Writer, pretty bool) OutputFormatter {
	return &JSONFormatter{writer: w, pretty: pretty}
}

func (f *JSONFormatter) marshal(v any) error {
	var data []byte
	var err error
	if f.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	_, _ = fmt.Fprintln(f.writer, string(data))
	return nil
}

func (f *JSONFormatter) FormatSuggestions(result *types.SuggestionResult) error {
	return f.marshal(result)
}

func (f *JSONFormatter) FormatWaves(analysis *types.WaveAnalysis) error {
	return f.marshal(analysis)
}

func (f *JSONFormatter) FormatPatterns(patterns []*types.Pattern) error {
	return f.marshal(map[string]any{"patterns": patterns, "count": len(patterns)})
}

func (f *JSONFormatter) FormatGotchas(results []gotcha.QueryResult) error {
	return f.marshal(map[string]any{"gotchas": results, "count": len(results)})
}

func (f *JSONFormatter) FormatQAResult(result *types.QAResult) error {
	return f.marshal(result)
}

func (f *JSONFormatter) FormatWorkflows(workflows []types.Workflow) error {
	return f.marshal(map[string]any{"workflows": workflows, "count": len(workflows)})
}

func (f *JSONFormatter) FormatError(err error) error {
	return f.marshal(map[string]string{"error": err.Error()})
}

// PlainFormatter renders compact plain text.
type PlainFormatter struct {
	writer io.Writer
}

// NewPlainFormatter creates a plain text formatter.
func NewPlainFormatter(w io.Writer) OutputFormatter {
	return &PlainFormatter{writer: w}
}

func (f *PlainFormatter) FormatSuggestions(result *types.SuggestionResult) error {
	for i, s := range result.Suggestions {
		_, _ = fmt.Fprintf(f.writer, "%d. %s (%.2f, %s)\n", i+1, s.Command, s.Confidence, s.Source)
	}
	if result.IsUncertain {
		_, _ = fmt.Fprintln(f.writer, "uncertain")
	}
	return nil
}

func (f *PlainFormatter) FormatWaves(analysis *types.WaveAnalysis) error {
	for _, w := range analysis.Waves {
		_, _ = fmt.Fprintf(f.writer, "wave %d: %s (%d min)\n",
			w.WaveNumber, strings.Join(w.Tasks, ", "), w.EstimatedDuration)
	}
	_, _ = fmt.Fprintf(f.writer, "gain: %d%%\n", analysis.OptimizationGain)
	return nil
}

func (f *PlainFormatter) FormatPatterns(patterns []*types.Pattern) error {
	for _, p := range patterns {
		_, _ = fmt.Fprintf(f.writer, "[%s] %s (%s, %.2f)\n",
			truncateID(p.ID), strings.Join(p.Sequence, " -> "), p.Status, p.Confidence)
	}
	return nil
}

func (f *PlainFormatter) FormatGotchas(results []gotcha.QueryResult) error {
	for _, r := range results {
		_, _ = fmt.Fprintf(f.writer, "[%s] %s: %s (%.2f)\n",
			truncateID(r.Gotcha.ID), r.Gotcha.Pattern, r.Gotcha.Context, r.Gotcha.Confidence)
	}
	return nil
}

func (f *PlainFormatter) FormatQAResult(result *types.QAResult) error {
	for _, action := range result.Actions {
		_, _ = fmt.Fprintln(f.writer, action)
	}
	return nil
}

func (f *PlainFormatter) FormatWorkflows(workflows []types.Workflow) error {
	for _, wf := range workflows {
		_, _ = fmt.Fprintf(f.writer, "%s (%d states)\n", wf.Name, len(wf.Transitions))
	}
	return nil
}

func (f *PlainFormatter) FormatError(err error) error {
	_, _ = fmt.Fprintf(f.writer, "error: %s\n", err.Error())
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func truncateID(id string) string {
	const maxLen = 8
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

package registry

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"workflow-intelligence/pkg/types"
)

// definitionsFile is the on-disk shape of a workflow definitions document.
// Workflows keep their authoring order for match tie-breaking.
type definitionsFile struct {
	Workflows []workflowDef `mapstructure:"workflows"`
}

type workflowDef struct {
	Name        string                   `mapstructure:"name"`
	Description string                   `mapstructure:"description"`
	Transitions map[string]transitionDef `mapstructure:"transitions"`
}

type transitionDef struct {
	Trigger    string        `mapstructure:"trigger"`
	Confidence float64       `mapstructure:"confidence"`
	NextSteps  []nextStepDef `mapstructure:"next_steps"`
}

type nextStepDef struct {
	Command      string `mapstructure:"command"`
	ArgsTemplate string `mapstructure:"args_template"`
	Description  string `mapstructure:"description"`
	Priority     int    `mapstructure:"priority"`
}

// parseDefinitions parses a definitions document. Markdown playbooks carry
// their workflow definitions in fenced yaml blocks; plain files are YAML
// throughout. Decoding is weakly typed so hand-authored files with quoted
// numbers still load, then validated per workflow.
func parseDefinitions(data []byte, path string) ([]types.Workflow, error) {
	var documents [][]byte
	if strings.HasSuffix(path, ".md") {
		documents = extractYAMLBlocks(data)
		if len(documents) == 0 {
			return nil, fmt.Errorf("no fenced yaml workflow blocks in %s", path)
		}
	} else {
		documents = [][]byte{data}
	}

	var workflows []types.Workflow
	for _, doc := range documents {
		var raw map[string]interface{}
		if err := yaml.Unmarshal(doc, &raw); err != nil {
			return nil, fmt.Errorf("parsing workflow definitions: %w", err)
		}

		var file definitionsFile
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &file,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("decoding workflow definitions: %w", err)
		}

		for i := range file.Workflows {
			wf := toWorkflow(&file.Workflows[i])
			if err := wf.Validate(); err != nil {
				return nil, fmt.Errorf("invalid workflow definition: %w", err)
			}
			workflows = append(workflows, wf)
		}
	}

	if len(workflows) == 0 {
		return nil, fmt.Errorf("definitions document %s contains no workflows", path)
	}
	return workflows, nil
}

func toWorkflow(def *workflowDef) types.Workflow {
	wf := types.Workflow{
		Name:        def.Name,
		Description: def.Description,
		Transitions: make(map[string]types.Transition, len(def.Transitions)),
	}
	for state, tr := range def.Transitions {
		steps := make([]types.NextStep, 0, len(tr.NextSteps))
		for _, step := range tr.NextSteps {
			steps = append(steps, types.NextStep{
				Command:      step.Command,
				ArgsTemplate: step.ArgsTemplate,
				Description:  step.Description,
				Priority:     step.Priority,
			})
		}
		wf.Transitions[state] = types.Transition{
			Trigger:    tr.Trigger,
			Confidence: tr.Confidence,
			NextSteps:  steps,
		}
	}
	return wf
}

// extractYAMLBlocks walks the markdown AST and collects fenced code blocks
// tagged as yaml, in document order.
func extractYAMLBlocks(source []byte) [][]byte {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var blocks [][]byte
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := string(fenced.Language(source))
		if lang != "yaml" && lang != "yml" {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}
		blocks = append(blocks, buf.Bytes())
		return ast.WalkContinue, nil
	})
	return blocks
}

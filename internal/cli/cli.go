// Package cli implements the wfi command line interface on top of the engine.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/engine"
	"workflow-intelligence/internal/logging"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// CLI owns the cobra command tree and the engine behind it.
type CLI struct {
	cfg    *config.Config
	logger logging.Logger
	engine *engine.Engine
	root   *cobra.Command
}

// New builds the command tree. The engine is constructed lazily on first use
// so commands like "wfi version" work without a data directory. Every
// invocation gets a fresh trace ID so its log lines correlate.
func New(cfg *config.Config, logger logging.Logger) *CLI {
	c := &CLI{cfg: cfg, logger: logger.WithTraceID(logging.GenerateTraceID())}
	c.root = c.createRootCommand()
	return c
}

// Execute runs the CLI.
func (c *CLI) Execute() error {
	return c.root.Execute()
}

func (c *CLI) createRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wfi",
		Short:         "Workflow intelligence engine",
		Long:          "wfi suggests next actions, analyzes task parallelism and learns command patterns from completed sessions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("output", "o", "table", "Output format (table, json, plain)")
	root.PersistentFlags().String("definitions", "", "Path to workflow definitions file")
	root.PersistentFlags().String("data-dir", "", "Data directory for stores")
	_ = viper.BindPFlag("output", root.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("definitions", root.PersistentFlags().Lookup("definitions"))
	_ = viper.BindPFlag("data_dir", root.PersistentFlags().Lookup("data-dir"))
	viper.SetEnvPrefix("WFI")
	viper.AutomaticEnv()

	root.AddCommand(
		c.createSuggestCommand(),
		c.createWavesCommand(),
		c.createPatternsCommand(),
		c.createGotchasCommand(),
		c.createQACommand(),
		c.createWorkflowsCommand(),
		c.createSessionCommand(),
	)
	return root
}

// getEngine builds the engine on first use, applying flag overrides.
func (c *CLI) getEngine() (*engine.Engine, error) {
	if c.engine != nil {
		return c.engine, nil
	}

	if v := viper.GetString("definitions"); v != "" {
		c.cfg.Registry.DefinitionsPath = v
	}
	if v := viper.GetString("data_dir"); v != "" {
		c.cfg.Learning.StorePath = v + "/patterns.json"
		c.cfg.Gotchas.StorePath = v + "/gotchas.json"
		c.cfg.QA.FeedbackPath = v + "/feedback.json"
		c.cfg.Session.LogPath = v + "/session.json"
	}

	eng, err := engine.New(c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("initializing engine: %w", err)
	}
	c.engine = eng
	return eng, nil
}

func (c *CLI) formatter() OutputFormatter {
	switch viper.GetString("output") {
	case "json":
		return NewJSONFormatter(os.Stdout, true)
	case "plain":
		return NewPlainFormatter(os.Stdout)
	default:
		return NewTableFormatter(os.Stdout)
	}
}

func (c *CLI) handleError(err error) error {
	_ = c.formatter().FormatError(err)
	return err
}

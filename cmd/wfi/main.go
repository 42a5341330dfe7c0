// Command wfi is the workflow intelligence engine CLI.
package main

import (
	"fmt"
	"os"

	"workflow-intelligence/internal/cli"
	"workflow-intelligence/internal/config"
	"workflow-intelligence/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format)

	if err := cli.New(cfg, logger).Execute(); err != nil {
		os.Exit(1)
	}
}

// Package cli provides the command-line interface for workflow-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "gateway",
		Aliases: []string{"g"},
		Usage:   "Gateway address (unix socket path or host:port)",
		EnvVars: []string{"WORKFLOW_GATEWAY"},
	},
	&cli.StringFlag{
		Name:  "config",
		Usage: "Path to workflow.yaml",
	},
	&cli.DurationFlag{
		Name:    "timeout",
		Usage:   "Step timeout for gated host calls (e.g. 2s)",
		EnvVars: []string{"WORKFLOW_TIMEOUT"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path (default: stderr)",
		EnvVars: []string{"WORKFLOW_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"WORKFLOW_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Run against the built-in in-memory host instead of a gateway",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "workflow-runner",
		Usage:   "Apply an initial editing workflow through a photo editor's scripting gateway",
		Version: Version,
		Description: `workflow-runner connects to the host's scripting gateway and walks
the configured workflow steps over the selected images, bottom of the
processing pipeline first.

Examples:
  workflow-runner run
  workflow-runner run portrait.yaml --report ./reports
  workflow-runner run --only exposure --displayed
  workflow-runner steps
  workflow-runner set exposure "slightly overexpose"
  workflow-runner check profiles/
  workflow-runner export --name "current setup"`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			stepsCommand,
			setCommand,
			resetCommand,
			checkCommand,
			exportCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/phototools-dev/workflow-runner/pkg/engine"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
	"github.com/phototools-dev/workflow-runner/pkg/profile"
)

var exportCommand = &cli.Command{
	Name:  "export",
	Usage: "Export the stored selections as a profile",
	Description: `Write the selections persisted in the host preference store as a
profile YAML. The file round-trips through "run" and "check".

Examples:
  workflow-runner export
  workflow-runner export --output portrait.yaml --name portrait`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to this file instead of stdout",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Profile name to embed",
			Value: "exported",
		},
	},
	Action: runExport,
}

func runExport(c *cli.Context) error {
	opts, err := resolveOptions(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	sess, err := openSession(c.Context, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	e := engine.New(sess.Client, nil, engine.Config{})
	e.LoadSelections()

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path) //#nosec G304 -- user-chosen output file
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := profile.Export(out, c.String("name"), e.Steps(), e.Selections()); err != nil {
		return err
	}
	if path := c.String("output"); path != "" {
		fmt.Printf("%s✓%s wrote %s\n", color(colorGreen), color(colorReset), path)
	}
	return nil
}

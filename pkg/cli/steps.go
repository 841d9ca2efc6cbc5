package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/phototools-dev/workflow-runner/pkg/engine"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
	"github.com/phototools-dev/workflow-runner/pkg/step"
)

var stepsCommand = &cli.Command{
	Name:  "steps",
	Usage: "List all workflow steps and their current selections",
	Description: `List every step with its stored selection. Selections live in the
host preference store, so this shows what "run" would do next.

Examples:
  workflow-runner steps
  workflow-runner --dry-run steps`,
	Action: runSteps,
}

var setCommand = &cli.Command{
	Name:      "set",
	Usage:     "Change one step's selection",
	ArgsUsage: "<step> [option]",
	Description: `Change a step's stored selection and persist it in the host
preference store. The option may be given by index or by its label as
printed by "steps". When the run-single-step setting is on, module
steps marked for it are applied to the displayed image right away.

Examples:
  workflow-runner set tone-mapper sigmoid
  workflow-runner set exposure --basic reset
  workflow-runner set timeout 2s`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "basic",
			Usage: "Basic mode: default, ignore, enable, reset or disable",
		},
	},
	Action: runSet,
}

var resetCommand = &cli.Command{
	Name:  "reset",
	Usage: "Reset every step selection to its factory default",
	Description: `Reset all stored selections to the catalog defaults and persist
them. Images are not touched.`,
	Action: runReset,
}

func runSteps(c *cli.Context) error {
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

	printStepGroup(e, step.GroupCommon, "Common")
	fmt.Println()
	printStepGroup(e, step.GroupModules, "Processing modules")
	return nil
}

func printStepGroup(e *engine.Engine, group step.Group, title string) {
	fmt.Printf("%s%s%s\n", color(colorBold), title, color(colorReset))
	for _, s := range e.Steps() {
		if s.Group() != group {
			continue
		}
		sel, _ := e.Selection(s.Name())

		basic := "-"
		if s.Basics() != step.BasicsNone {
			basic = string(step.ResolveBasic(s, sel))
		}
		option := step.OptionLabel(s, sel.Option)
		if option == "" {
			option = "-"
		}

		fmt.Printf("  %-26s %s%-9s%s %-22s %s%s%s\n",
			s.Name(),
			color(basicColor(basic)), basic, color(colorReset),
			option,
			color(colorGray), s.Label(), color(colorReset))
	}
}

// basicColor picks the color code for a basic mode column.
func basicColor(basic string) string {
	switch step.BasicMode(basic) {
	case step.BasicEnable, step.BasicReset:
		return colorGreen
	case step.BasicDisable:
		return colorRed
	}
	return colorGray
}

func runSet(c *cli.Context) error {
	opts, err := resolveOptions(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	if c.NArg() < 1 {
		return fmt.Errorf("usage: set <step> [option]")
	}
	if c.NArg() < 2 && !c.IsSet("basic") {
		return fmt.Errorf("nothing to change; give an option or --basic")
	}

	steps := step.Catalog()
	s, ok := step.Lookup(steps, c.Args().Get(0))
	if !ok {
		return fmt.Errorf("unknown step %q; see \"steps\" for the list", c.Args().Get(0))
	}

	// The change may trigger an immediate single-step run, so the set
	// command gets the same signal handling as a full run.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	e := engine.New(sess.Client, nil, engine.Config{Steps: steps})
	e.LoadSelections()
	if opts.Timeout > 0 {
		e.Settings().SetTimeout(opts.Timeout)
	}

	sel, _ := e.Selection(s.Name())
	if c.IsSet("basic") {
		mode, err := step.ParseBasicMode(c.String("basic"))
		if err != nil {
			return err
		}
		if s.Basics() == step.BasicsNone && mode != step.BasicDefault {
			return fmt.Errorf("step %s has no basic modes", s.Name())
		}
		if s.Basics() != step.BasicsNone && !s.Basics().Contains(mode) {
			return fmt.Errorf("step %s does not offer basic mode %q", s.Name(), mode)
		}
		sel.Basic = mode
	}
	if c.NArg() > 1 {
		idx, err := resolveOption(s, c.Args().Get(1))
		if err != nil {
			return err
		}
		sel.Option = idx
	}

	if err := e.ApplySelection(ctx, s.Name(), sel); err != nil {
		return err
	}

	basic := ""
	if s.Basics() != step.BasicsNone {
		basic = string(step.ResolveBasic(s, sel)) + " "
	}
	fmt.Printf("%s✓%s %s = %s%s\n",
		color(colorGreen), color(colorReset), s.Name(), basic, step.OptionLabel(s, sel.Option))
	logger.Info("Set %s to basic=%s option=%d", s.Name(), sel.Basic, sel.Option)
	return nil
}

// resolveOption turns a user-supplied option argument into an index.
// Plain integers address options directly; anything else matches the
// option labels, case-insensitively.
func resolveOption(s step.Step, arg string) (int, error) {
	opts := s.Options()
	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 0 || idx >= len(opts) {
			return 0, fmt.Errorf("step %s has options 0-%d", s.Name(), len(opts)-1)
		}
		return idx, nil
	}
	for i, label := range opts {
		if strings.EqualFold(label, arg) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("step %s has no option %q; choices: %s",
		s.Name(), arg, strings.Join(opts, ", "))
}

func runReset(c *cli.Context) error {
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
	if err := e.ResetAllToDefaults(); err != nil {
		return err
	}

	fmt.Printf("%s✓%s all selections reset to defaults\n", color(colorGreen), color(colorReset))
	logger.Info("Reset all selections to defaults")
	return nil
}

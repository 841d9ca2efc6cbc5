package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/engine"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
	"github.com/phototools-dev/workflow-runner/pkg/profile"
	"github.com/phototools-dev/workflow-runner/pkg/report"
	"github.com/phototools-dev/workflow-runner/pkg/rules"
	"github.com/phototools-dev/workflow-runner/pkg/step"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run the workflow over the selected images",
	ArgsUsage: "[profile.yaml ...]",
	Description: `Run the workflow on the host's current image selection. Selections
persisted in the host preference store are the baseline; profile files
given as arguments or via --profile overlay them for this run only.

Examples:
  workflow-runner run
  workflow-runner run portrait.yaml
  workflow-runner run --profile landscape.yaml --report ./reports
  workflow-runner run --displayed
  workflow-runner run --only exposure`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Workflow profile to apply (repeatable)",
		},
		&cli.StringFlag{
			Name:  "only",
			Usage: "Run a single step by name on the displayed image",
		},
		&cli.BoolFlag{
			Name:  "displayed",
			Usage: "Process only the image currently open for editing",
		},
		&cli.StringFlag{
			Name:    "report",
			Aliases: []string{"r"},
			Usage:   "Write a JSON run report into this directory",
		},
	},
	Action: runRun,
}

// imageRule is a profile rule with its selections resolved against the
// step catalog, ready to evaluate per image.
type imageRule struct {
	when string
	sels map[string]step.Selection
}

func runRun(c *cli.Context) error {
	opts, err := resolveOptions(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	steps := step.Catalog()

	paths, err := collectProfilePaths(c.Args().Slice(), c.StringSlice("profile"), opts.Profiles)
	if err != nil {
		return err
	}
	profiles, err := loadProfiles(paths, steps)
	if err != nil {
		return err
	}

	base, imageRules, err := resolveProfiles(profiles, steps)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	reportDir := c.String("report")
	if reportDir == "" {
		reportDir = opts.ReportDir
	}
	only := c.String("only")

	cfg := engine.Config{
		Steps:    steps,
		Snapshot: opts.Snapshot,
	}
	if src, ok := sess.Client.(core.SnapshotSource); ok {
		cfg.Source = src
	}
	if len(imageRules) > 0 {
		cfg.SelectionsFor = ruleOverlay(sess.Client, imageRules)
	}

	images, err := imagesToProcess(sess.Client, c.Bool("displayed"))
	if err != nil {
		return err
	}

	var reporter *runReporter
	if reportDir != "" && only == "" {
		reporter, err = newRunReporter(reportDir, images, steps, report.BuilderConfig{
			OutputDir: reportDir,
			Host:      sess.HostInfo(opts.Gateway),
			Runner:    report.RunnerInfo{Version: Version, Mode: sess.Mode()},
		})
		if err != nil {
			return err
		}
	}

	wireProgress(&cfg, reporter, len(images))

	e := engine.New(sess.Client, nil, cfg)
	e.LoadSelections()
	e.SetSelections(base)
	if opts.Timeout > 0 {
		e.Settings().SetTimeout(opts.Timeout)
	}

	if only != "" {
		return runOnly(ctx, e, only)
	}

	if reporter != nil {
		reporter.start()
	}

	var batch core.BatchResult
	if c.Bool("displayed") {
		run := e.ProcessDisplayedImage(ctx)
		batch = core.BatchResult{TotalImages: 1, Runs: []core.RunResult{run}, Canceled: run.Canceled}
		batch.Duration = run.Duration
		batch.ComputeSummary()
	} else {
		batch, err = e.ProcessSelection(ctx)
		if err != nil {
			if reporter != nil {
				reporter.end()
			}
			return err
		}
	}

	if reporter != nil {
		reporter.end()
		fmt.Printf("\n  Report: %s\n", filepath.Join(reportDir, "report.json"))
	}
	printBatchSummary(batch)

	if batch.Canceled {
		return core.ErrRunCanceled
	}
	if batch.FailedImages > 0 {
		return fmt.Errorf("%d image(s) failed", batch.FailedImages)
	}
	return nil
}

// runOnly executes a single step against the displayed image.
func runOnly(ctx context.Context, e *engine.Engine, name string) error {
	run, err := e.RunSingle(ctx, name)
	if err != nil {
		return err
	}
	for _, res := range run.Steps {
		printStepDone(res.Name, res.Status, res.Duration.Milliseconds())
	}
	if run.Status == core.StatusFailed {
		return fmt.Errorf("step %s failed", name)
	}
	return nil
}

// collectProfilePaths merges positional arguments, --profile flags and
// the config file's profile globs, in that order.
func collectProfilePaths(args, flagged, globs []string) ([]string, error) {
	paths := append([]string{}, args...)
	paths = append(paths, flagged...)

	for _, pattern := range globs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad profile glob %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// loadProfiles parses and validates each profile, failing fast on the
// first file a run could not faithfully apply.
func loadProfiles(paths []string, steps []step.Step) ([]*profile.Profile, error) {
	v := profile.NewValidator(steps, rules.Check)

	var profiles []*profile.Profile
	for _, path := range paths {
		p, err := profile.ParseFile(path)
		if err != nil {
			return nil, err
		}
		if result := v.Validate(p); !result.IsValid() {
			for _, issue := range result.Errors {
				fmt.Printf("  %s✗%s %v\n", color(colorRed), color(colorReset), issue)
			}
			return nil, core.ErrInvalidProfile.WithMessage(fmt.Sprintf("profile %s is invalid", path))
		}
		profiles = append(profiles, p)
		logger.Info("Loaded profile %s (%s)", p.Name, path)
	}
	return profiles, nil
}

// resolveProfiles flattens the profiles into base selections plus
// per-image rules. Later profiles win on conflicts.
func resolveProfiles(profiles []*profile.Profile, steps []step.Step) (map[string]step.Selection, []imageRule, error) {
	base := make(map[string]step.Selection)
	var rulesOut []imageRule

	for _, p := range profiles {
		sels, err := p.Selections(steps)
		if err != nil {
			return nil, nil, err
		}
		for name, sel := range sels {
			base[name] = sel
		}

		for _, r := range p.Rules {
			sels, err := r.Selections(steps)
			if err != nil {
				return nil, nil, err
			}
			rulesOut = append(rulesOut, imageRule{when: r.When, sels: sels})
		}
	}
	return base, rulesOut, nil
}

// ruleOverlay builds the per-image selection hook: evaluate every rule
// against the image's metadata and merge the selections of those that
// match.
func ruleOverlay(client host.Client, imageRules []imageRule) func(host.ImageRef) map[string]step.Selection {
	eng := rules.New()

	return func(img host.ImageRef) map[string]step.Selection {
		info, err := client.ImageInfo(img)
		if err != nil {
			logger.Warn("image info for %s: %v", img.Name, err)
			return nil
		}

		var merged map[string]step.Selection
		for _, r := range imageRules {
			ok, err := eng.Matches(r.when, info)
			if err != nil {
				logger.Warn("rule %q: %v", r.when, err)
				continue
			}
			if !ok {
				continue
			}
			if merged == nil {
				merged = make(map[string]step.Selection)
			}
			for name, sel := range r.sels {
				merged[name] = sel
			}
		}
		return merged
	}
}

// imagesToProcess returns the image labels a run will touch, for the
// report skeleton.
func imagesToProcess(client host.Client, displayed bool) ([]string, error) {
	if displayed {
		img, err := client.DisplayedImage()
		if err != nil {
			return nil, err
		}
		return []string{imageName(img)}, nil
	}

	selection, err := client.Selection()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(selection))
	for i, img := range selection {
		names[i] = imageName(img)
	}
	return names, nil
}

func imageName(img host.ImageRef) string {
	if img.Name != "" {
		return img.Name
	}
	return fmt.Sprintf("image #%d", img.ID)
}

// wireProgress attaches the terminal progress printers and, when a
// report is requested, the report writers to the engine callbacks.
func wireProgress(cfg *engine.Config, reporter *runReporter, total int) {
	seen := 0

	cfg.OnRunStart = func(image string) {
		seen++
		printImageHeader(seen, total, image)
		if reporter != nil {
			reporter.runStart(image)
		}
	}
	cfg.OnStepStart = func(idx, total int, name string) {
		if reporter != nil {
			reporter.stepStart(idx)
		}
	}
	cfg.OnStepDone = func(idx, total int, name string, status core.StepStatus, durationMs int64) {
		printStepDone(name, status, durationMs)
	}
	cfg.OnRunDone = func(run core.RunResult) {
		printRunResult(run)
		if reporter != nil {
			reporter.runDone(run)
		}
	}
}

// runReporter adapts the engine's run callbacks onto the report
// writers. Runs arrive in skeleton order, one at a time.
type runReporter struct {
	dir     string
	index   *report.IndexWriter
	details []report.RunDetail
	current *report.RunWriter
	next    int
}

func newRunReporter(dir string, images []string, steps []step.Step, cfg report.BuilderConfig) (*runReporter, error) {
	index, details := report.BuildSkeleton(images, steps, cfg)
	if err := report.WriteSkeleton(dir, index, details); err != nil {
		return nil, err
	}
	return &runReporter{
		dir:     dir,
		index:   report.NewIndexWriter(dir, index),
		details: details,
	}, nil
}

func (r *runReporter) start() {
	r.index.Start()
}

func (r *runReporter) runStart(string) {
	if r.next >= len(r.details) {
		return
	}
	r.current = report.NewRunWriter(&r.details[r.next], r.dir, r.index)
	r.next++
	r.current.Start()
}

func (r *runReporter) stepStart(idx int) {
	if r.current != nil {
		r.current.StepStart(idx)
	}
}

func (r *runReporter) runDone(run core.RunResult) {
	if r.current == nil {
		return
	}
	for _, res := range run.Steps {
		r.current.StepDone(res.Index, res)
	}
	r.current.End(run)
	r.current = nil
}

func (r *runReporter) end() {
	r.index.End()
	r.index.Close()
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/phototools-dev/workflow-runner/pkg/logger"
	"github.com/phototools-dev/workflow-runner/pkg/profile"
	"github.com/phototools-dev/workflow-runner/pkg/rules"
	"github.com/phototools-dev/workflow-runner/pkg/step"
)

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "Validate workflow profiles without touching a host",
	ArgsUsage: "<profile.yaml|directory> ...",
	Description: `Parse the given profiles, resolve every entry against the step
catalog and compile every rule condition. Nothing is sent anywhere, so
this works with no gateway configured.

With no arguments the profiles from workflow.yaml are checked.

Examples:
  workflow-runner check portrait.yaml
  workflow-runner check ./profiles`,
	Action: runCheck,
}

func runCheck(c *cli.Context) error {
	opts, err := resolveOptions(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	files, err := checkTargets(c.Args().Slice(), opts.Profiles)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no profiles to check; give files or directories")
	}

	v := profile.NewValidator(step.Catalog(), rules.Check)

	invalid := 0
	for _, path := range files {
		res := v.ValidateFile(path)
		if res.IsValid() {
			fmt.Printf("%s✓%s %s\n", color(colorGreen), color(colorReset), path)
			continue
		}
		invalid++
		fmt.Printf("%s✗%s %s\n", color(colorRed), color(colorReset), path)
		for _, issue := range res.Errors {
			fmt.Printf("    %v\n", issue)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d profile(s) invalid", invalid, len(files))
	}
	fmt.Printf("\n%d profile(s) valid\n", len(files))
	return nil
}

// checkTargets expands the command arguments into profile files. A
// directory argument means every .yaml/.yml file directly inside it.
// Without arguments the config file's profile globs are used.
func checkTargets(args, fallback []string) ([]string, error) {
	if len(args) == 0 {
		var files []string
		for _, pattern := range fallback {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("bad profile pattern %q: %w", pattern, err)
			}
			files = append(files, matches...)
		}
		return files, nil
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		var inDir []string
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, err
			}
			inDir = append(inDir, matches...)
		}
		sort.Strings(inDir)
		files = append(files, inDir...)
	}
	return files, nil
}

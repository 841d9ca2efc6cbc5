package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/phototools-dev/workflow-runner/pkg/core"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}

func printImageHeader(idx, total int, image string) {
	if image == "" {
		image = "(displayed image)"
	}
	fmt.Printf("\n  %s[%d/%d]%s %s%s%s\n",
		color(colorCyan), idx, total, color(colorReset),
		color(colorBold), image, color(colorReset))
	fmt.Println("  " + strings.Repeat("─", 60))
}

func printStepDone(name string, status core.StepStatus, durationMs int64) {
	durStr := formatDuration(durationMs)

	switch status {
	case core.StatusApplied:
		fmt.Printf("    %s✓%s %s %s(%s)%s\n",
			color(colorGreen), color(colorReset), name, color(colorGray), durStr, color(colorReset))
	case core.StatusSkipped:
		fmt.Printf("    %s-%s %s %sskipped%s\n",
			color(colorGray), color(colorReset), name, color(colorGray), color(colorReset))
	case core.StatusTimedOut:
		fmt.Printf("    %s⚠%s %s %s(no pipeline event after %s)%s\n",
			color(colorYellow), color(colorReset), name, color(colorYellow), durStr, color(colorReset))
	case core.StatusFailed:
		fmt.Printf("    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), name, durStr)
	case core.StatusCanceled:
		fmt.Printf("    %s✗%s %s canceled\n", color(colorRed), color(colorReset), name)
	}
}

func printRunResult(run core.RunResult) {
	label := run.Image
	if label == "" {
		label = "image"
	}
	durStr := formatDuration(run.Duration.Milliseconds())

	switch {
	case run.Canceled:
		fmt.Printf("  %s✗ canceled%s %s\n", color(colorRed), color(colorReset), label)
	case run.Status == core.StatusFailed:
		fmt.Printf("  %s✗%s %s %s%s%s\n",
			color(colorRed), color(colorReset), label, color(colorGray), durStr, color(colorReset))
	default:
		fmt.Printf("  %s✓%s %s %s%s%s\n",
			color(colorGreen), color(colorReset), label, color(colorGray), durStr, color(colorReset))
	}

	for _, msg := range run.Messages {
		fmt.Printf("    %s╰─%s %s\n", color(colorGray), color(colorReset), msg)
	}
}

func printBatchSummary(batch core.BatchResult) {
	fmt.Println()
	fmt.Println("  " + strings.Repeat("═", 60))

	statusColor := colorGreen
	statusText := "completed"
	if batch.Canceled {
		statusColor = colorYellow
		statusText = "canceled"
	} else if batch.FailedImages > 0 {
		statusColor = colorRed
		statusText = "completed with failures"
	}

	fmt.Printf("  %s%s%s: %d image(s), %d ok, %d failed, %d skipped",
		color(statusColor), statusText, color(colorReset),
		batch.TotalImages, batch.ProcessedOK, batch.FailedImages, batch.SkippedImages)
	if batch.TimedOutEvents > 0 {
		fmt.Printf(", %d timeout(s)", batch.TimedOutEvents)
	}
	fmt.Printf(" %s(%s)%s\n", color(colorGray), formatDuration(batch.Duration.Milliseconds()), color(colorReset))
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/complytrain/internal/course"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// stderr receives status lines; stdout is kept for generated content.
var stderr io.Writer = os.Stderr

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stderr, colorize(colorCyan, "→ "+msg))
}

var stageHeadings = map[course.Stage]string{
	course.StageIntro:    "Introduction",
	course.StageScenario: "Scenario",
	course.StageQuestion: "Question",
}

// printSection writes one generated block under its heading.
func printSection(w io.Writer, stage course.Stage, text string) {
	heading := stageHeadings[stage]
	fmt.Fprintf(w, "\n%s\n%s\n\n%s\n", colorize(colorBold, heading), strings.Repeat("─", len([]rune(heading))), text)
}

package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-stepsplit/pkg/orchestrator"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// printSummary reports the run outcome on stdout. Unit lines show up even
// when the run failed partway so the user can see what exists on disk.
func printSummary(cmd *cobra.Command, result orchestrator.Result, runErr error) {
	out := cmd.OutOrStdout()

	if result.Kind != "" {
		fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("%s (%s)", result.Input, result.Kind)))
	}

	for _, u := range result.Units {
		switch {
		case u.Err != nil:
			fmt.Fprintf(out, "  %s %s: %v\n", failStyle.Render("✗"), u.Name, u.Err)
		case u.Instances > 1:
			fmt.Fprintf(out, "  %s %s %s\n", okStyle.Render("✓"), u.File,
				dimStyle.Render(fmt.Sprintf("(%d entities, %d instances)", u.Entities, u.Instances)))
		default:
			fmt.Fprintf(out, "  %s %s %s\n", okStyle.Render("✓"), u.File,
				dimStyle.Render(fmt.Sprintf("(%d entities)", u.Entities)))
		}
	}

	if result.ReportPath != "" {
		fmt.Fprintf(out, "  %s %s\n", okStyle.Render("✓"), result.ReportPath)
	}

	if runErr == nil && len(result.Units) > 0 {
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("%d units written to %s", len(result.Units), result.OutputDir)))
	}
}

// renderError gives classification failures a friendlier face than the raw
// error chain.
func renderError(err error) string {
	var classification *step.ClassificationError
	if errors.As(err, &classification) {
		return errorStyle.Render("nothing to split: ") + classification.Error()
	}
	return errorStyle.Render("error: ") + err.Error()
}

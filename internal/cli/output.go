package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/filinglab/riskseg/internal/batch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("69")).
			Padding(0, 1)
)

// formatSummary renders the end-of-run box.
func formatSummary(w io.Writer, sum *batch.Summary) {
	snap := sum.Snapshot

	var status string
	if snap.Status == batch.StatusCompleted {
		status = successStyle.Render(string(snap.Status))
	} else {
		status = errorStyle.Render(string(snap.Status))
	}

	line1 := fmt.Sprintf("%s %s  %s %s",
		dimStyle.Render("Run:"), snap.RunID,
		dimStyle.Render("Status:"), status,
	)
	line2 := fmt.Sprintf("%s %d  %s %s  %s %s  %s %d  %s %d",
		dimStyle.Render("Total:"), snap.Total,
		dimStyle.Render("Succeeded:"), successStyle.Render(fmt.Sprintf("%d", snap.Succeeded)),
		dimStyle.Render("Failed:"), renderFailed(snap.Failed),
		dimStyle.Render("No section:"), snap.NotFound,
		dimStyle.Render("Skipped:"), snap.Skipped,
	)
	line3 := fmt.Sprintf("%s %s",
		dimStyle.Render("Elapsed:"), snap.UpdatedAt.Sub(snap.StartedAt).Round(time.Millisecond),
	)

	content := titleStyle.Render("Batch Complete") + "\n" + line1 + "\n" + line2 + "\n" + line3
	fmt.Fprintln(w, boxStyle.Render(content))

	for _, r := range sum.Results {
		if r.Outcome == batch.OutcomeSuccess || r.Outcome == batch.OutcomeSkipped {
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n",
			errorStyle.Render(string(r.Outcome)), r.Path, dimStyle.Render(r.Detail))
	}
}

func renderFailed(n int) string {
	if n > 0 {
		return errorStyle.Render(fmt.Sprintf("%d", n))
	}
	return fmt.Sprintf("%d", n)
}

// Package output renders snapshot listings, diffs, restore plans, and
// execution reports for the terminal. Tables use ASCII with ANSI colors
// when stdout is a TTY.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/pkgsnap/internal/restore"
	"github.com/blackwell-systems/pkgsnap/internal/snapshot"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled reports whether stdout is a terminal.
func IsColorEnabled() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderSnapshotTable renders a table of snapshot summaries, assumed to be
// pre-sorted newest first by the store.
func RenderSnapshotTable(summaries []*snapshot.Summary) string {
	if len(summaries) == 0 {
		return "No snapshots found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-5s %-17s %-10s %s\n",
		"ID", "Created", "Packages", "Reason"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, summary := range summaries {
		sb.WriteString(fmt.Sprintf("%-5d %-17s %-10d %s\n",
			summary.ID,
			formatRelativeTime(summary.CreatedAt),
			summary.PackageCount,
			truncate(summary.Reason, 36)))
	}

	return sb.String()
}

// RenderPackageTable renders the package set of a snapshot.
func RenderPackageTable(snap *snapshot.Snapshot) string {
	records := snap.Records()
	if len(records) == 0 {
		return "No packages in snapshot.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-32s %s\n", "Package", "Version"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, record := range records {
		sb.WriteString(fmt.Sprintf("%-32s %s\n", truncate(record.Name, 32), record.Version))
	}

	return sb.String()
}

// RenderDiff renders a classified diff, one line per package.
func RenderDiff(diff *snapshot.DiffResult) string {
	if diff.Empty() {
		return "Snapshots are identical.\n"
	}

	var sb strings.Builder

	for _, record := range diff.Removed {
		sb.WriteString(colorize(colorRed, fmt.Sprintf("- %-32s %s", record.Name, record.Version)))
		sb.WriteString("\n")
	}
	for _, record := range diff.Added {
		sb.WriteString(colorize(colorGreen, fmt.Sprintf("+ %-32s %s", record.Name, record.Version)))
		sb.WriteString("\n")
	}
	for _, change := range diff.Changed {
		sb.WriteString(colorize(colorYellow,
			fmt.Sprintf("~ %-32s %s -> %s", change.Name, change.From, change.To)))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n%d removed, %d added, %d changed\n",
		len(diff.Removed), len(diff.Added), len(diff.Changed)))

	return sb.String()
}

// RenderPlan renders a restore plan in execution order.
func RenderPlan(plan restore.Plan) string {
	if len(plan) == 0 {
		return "Nothing to do: host already matches the snapshot.\n"
	}

	var sb strings.Builder
	for i, op := range plan {
		sb.WriteString(fmt.Sprintf("%3d. %s\n", i+1, op.String()))
	}
	return sb.String()
}

// RenderReport renders an execution report, one line per operation plus an
// overall verdict, so an operator can decide what to retry.
func RenderReport(report *restore.Report) string {
	var sb strings.Builder

	for _, outcome := range report.Outcomes {
		var status string
		switch outcome.Status {
		case restore.StatusSucceeded:
			status = colorize(colorGreen, "ok     ")
		case restore.StatusSkipped:
			status = colorize(colorGray, "skipped")
		case restore.StatusFailed:
			status = colorize(colorRed, "FAILED ")
		}

		sb.WriteString(fmt.Sprintf("%s  %s", status, outcome.Operation.String()))
		if outcome.Status == restore.StatusFailed && outcome.Detail != "" {
			sb.WriteString("  (" + truncate(outcome.Detail, 60) + ")")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch report.Overall {
	case restore.OverallSuccess:
		sb.WriteString(colorize(colorGreen, "Restore completed successfully.\n"))
	case restore.OverallPartialSuccess:
		sb.WriteString(colorize(colorYellow,
			"Restore completed with failures. Failed operations can be retried.\n"))
	case restore.OverallAborted:
		sb.WriteString(colorize(colorRed, "Restore aborted. Remaining operations were not attempted.\n"))
	}

	return sb.String()
}

// formatRelativeTime formats a timestamp as a human-friendly relative time.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

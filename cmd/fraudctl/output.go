package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"fraud-console/internal/models"
	"fraud-console/internal/services"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(22)
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	badStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func header(w io.Writer, title string) {
	fmt.Fprintln(w, headerStyle.Render(title))
}

func row(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %v\n", labelStyle.Render(label), value)
}

// badge renders the fraud verdict for one score.
func badge(r models.ScoreResult) string {
	if r.Flagged() {
		return badStyle.Render("FRAUD")
	}
	return okStyle.Render("LEGITIMATE")
}

func statusBadge(s services.StatusBadge) string {
	switch s.Color {
	case "success":
		return okStyle.Render(s.Label)
	case "error":
		return badStyle.Render(s.Label)
	default:
		return mutedStyle.Render(s.Label)
	}
}

// printToast writes the toast line and turns an error toast into the
// command's error so the exit status reflects it.
func printToast(w io.Writer, t *models.Toast) error {
	if t == nil {
		return nil
	}
	switch t.Level {
	case models.ToastError:
		return fmt.Errorf("%s", t.Message)
	case models.ToastSuccess:
		fmt.Fprintln(w, okStyle.Render("✓ "+t.Message))
	default:
		fmt.Fprintln(w, infoStyle.Render("ℹ "+t.Message))
	}
	return nil
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func byteSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

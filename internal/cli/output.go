package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atinyakov/winnermind/internal/models"
)

// printer writes command results as indented JSON or as text.
type printer struct {
	format string
	w      io.Writer
}

// print writes data as JSON, or calls text in text mode.
func (p *printer) print(data any, text func(w io.Writer) error) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return text(p.w)
}

func writeSettings(w io.Writer, s models.Settings) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "language\t%s\n", s.Language)
	fmt.Fprintf(tw, "theme\t%s\n", s.Theme)
	fmt.Fprintf(tw, "sidebar collapsed\t%t\n", s.SidebarCollapsed)
	fmt.Fprintf(tw, "goal categories\t%s\n", strings.Join(s.GoalCategories, ", "))
	fmt.Fprintf(tw, "max sub-goals\t%d\n", s.MaxSubGoals)
	fmt.Fprintf(tw, "daily quote\t%q (%s)\n", s.DailyQuote.Text, s.DailyQuote.Author)
	return tw.Flush()
}

func writeUsers(w io.Writer, users []models.AdminUser) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tLAST LOGIN")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, formatTime(u.LastLogin))
	}
	return tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

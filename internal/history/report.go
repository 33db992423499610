package history

import (
	"fmt"
	"io"

	"github.com/nhle/mastodon-notify/internal/theme"
)

// timeLayout is how delivery times are printed.
const timeLayout = "2006-01-02 15:04:05"

// PrintReport writes deliveries as a styled table, one line per delivery.
func PrintReport(w io.Writer, deliveries []Delivery) error {
	if _, err := fmt.Fprintln(w, theme.HeaderStyle.Render("Recent notifications")); err != nil {
		return err
	}
	if len(deliveries) == 0 {
		_, err := fmt.Fprintln(w, theme.HelpStyle.Render("Nothing delivered yet."))
		return err
	}

	for _, d := range deliveries {
		outcome := d.Outcome
		if d.Pending() {
			outcome = "pending"
		}
		line := fmt.Sprintf("%s %s %s %s",
			d.SentAt.Local().Format(timeLayout),
			theme.KindStyle(d.Kind).Render(d.Kind),
			d.Summary,
			theme.OutcomeStyle(d.Outcome).Render("["+outcome+"]"),
		)
		if d.URL != "" {
			line += " " + theme.LinkStyle.Render(d.URL)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

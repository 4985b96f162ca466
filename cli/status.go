// ABOUTME: Status subcommand
// ABOUTME: Shows credential presence, the last sync state, and recent fetch runs
package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/connections/db"
	"github.com/harperreed/connections/models"
	"github.com/harperreed/connections/sync"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// StatusCommand prints what is stored locally
func StatusCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	limit := fs.Int("limit", 5, "Number of recent runs to show")
	_ = fs.Parse(args)

	styled := env.isTerminal()
	render := func(style lipgloss.Style, s string) string {
		if !styled {
			return s
		}
		return style.Render(s)
	}

	store := env.store()
	_, _ = fmt.Fprintln(env.Out, render(titleStyle, "Credential"))
	if _, ok := store.Load(); ok {
		_, _ = fmt.Fprintf(env.Out, "  %s %s\n", render(okStyle, "authorized"), store.TokenPath())
	} else {
		_, _ = fmt.Fprintf(env.Out, "  %s run 'connections auth'\n", render(warnStyle, "not authorized"))
	}

	if env.DB == nil {
		return nil
	}

	state, err := db.GetSyncState(env.DB, sync.ConnectionsService)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(env.Out)
	_, _ = fmt.Fprintln(env.Out, render(titleStyle, "Sync state"))
	if state == nil {
		_, _ = fmt.Fprintln(env.Out, "  never fetched")
	} else {
		status := state.Status
		switch status {
		case "idle":
			status = render(okStyle, status)
		case "error":
			status = render(errStyle, status)
		default:
			status = render(warnStyle, status)
		}
		_, _ = fmt.Fprintf(env.Out, "  status: %s\n", status)
		if state.LastSyncTime != nil {
			_, _ = fmt.Fprintf(env.Out, "  last fetch: %s\n", state.LastSyncTime.Local().Format(time.RFC1123))
		}
		if state.ErrorMessage != nil {
			_, _ = fmt.Fprintf(env.Out, "  error: %s\n", *state.ErrorMessage)
		}
	}

	runs, err := db.RecentFetchRuns(env.DB, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(env.Out)
	_, _ = fmt.Fprintln(env.Out, render(titleStyle, "Recent runs"))
	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "  STARTED\tSOURCE\tPAGES\tRECORDS\tSTATUS")
	for _, run := range runs {
		status := run.Status
		if run.Status == models.FetchStatusError {
			status = render(errStyle, status)
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Source, run.Pages, run.Records, status)
	}

	return w.Flush()
}

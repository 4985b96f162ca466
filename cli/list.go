// ABOUTME: Connections listing subcommand
// ABOUTME: Authorizes from the stored credential and prints every connection as JSON
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/harperreed/connections/sync"
)

// ListCommand prints all connections, paging through the whole list first
func ListCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	output := fs.String("output", "", "Write JSON to this file instead of stdout")
	noLogin := fs.Bool("no-login", false, "Fail instead of starting a browser login when no credential is stored")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var flow sync.CodeFlow
	if !*noLogin {
		flow = sync.NewLoopbackFlow(env.Config.CredentialsPath, openBrowser, os.Stderr)
	}

	client, err := env.authorizer(flow).Authorize(ctx)
	if err != nil {
		return err
	}

	lister, err := sync.NewConnectionsLister(ctx, client, env.PeopleOptions...)
	if err != nil {
		return err
	}

	summaries, err := sync.NewConnectionsRun(env.DB, "cli").List(ctx, lister)
	if err != nil {
		var fetchErr *sync.FetchError
		if errors.As(err, &fetchErr) {
			env.Logger.Error("Error fetching connections", "page", fetchErr.Page, "diagnostic", fetchErr.Diagnostic())
		}
		return fmt.Errorf("failed to list connections: %w", err)
	}

	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(env.Out, "No connections found.")
		return nil
	}

	var w io.Writer = env.Out
	if *output != "" {
		f, err := os.OpenFile(*output, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return fmt.Errorf("failed to encode connections: %w", err)
	}

	if *output != "" {
		_, _ = fmt.Fprintf(env.Out, "✓ Wrote %d connections to %s\n", len(summaries), *output)
	}

	return nil
}

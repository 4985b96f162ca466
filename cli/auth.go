// ABOUTME: Interactive authorization subcommand
// ABOUTME: Reuses the stored credential or runs the loopback browser login and saves it
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/harperreed/connections/sync"
)

// AuthCommand makes sure a credential is stored, logging in through the browser if needed
func AuthCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	noBrowser := fs.Bool("no-browser", false, "Print the consent URL instead of opening a browser")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := env.store()
	if _, ok := store.Load(); ok {
		_, _ = fmt.Fprintf(env.Out, "✓ Already authorized (credential at %s)\n", store.TokenPath())
		return nil
	}

	opener := openBrowser
	if *noBrowser {
		opener = nil
	}

	_, _ = fmt.Fprintln(env.Out, "Opening browser for Google OAuth...")
	flow := sync.NewLoopbackFlow(env.Config.CredentialsPath, opener, env.Out)
	if _, err := env.authorizer(flow).Authorize(ctx); err != nil {
		return fmt.Errorf("OAuth flow failed: %w", err)
	}

	_, _ = fmt.Fprintf(env.Out, "\n✓ Authenticated successfully\n")
	if _, ok := store.Load(); ok {
		_, _ = fmt.Fprintf(env.Out, "✓ Credential saved to %s\n", store.TokenPath())
	}
	_, _ = fmt.Fprintln(env.Out, "Ready! Run 'connections list' to fetch your contacts.")

	return nil
}

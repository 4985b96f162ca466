// ABOUTME: HTTP server subcommand
// ABOUTME: Starts the login and connections routes until interrupted
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/connections/sync"
	"github.com/harperreed/connections/web"
)

// ServeCommand runs the web server
func ServeCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", env.Config.Port, "Port to listen on")
	_ = fs.Parse(args)

	if err := env.Config.ValidateWeb(); err != nil {
		return err
	}

	if *port != env.Config.Port && os.Getenv("GOOGLE_REDIRECT_URI") == "" {
		env.Logger.Warn("port overridden; make sure the registered redirect URI matches", "redirect", env.Config.RedirectURL)
	}

	server := web.NewServer(
		sync.NewWebFlow(env.oauthConfig()),
		env.store(),
		env.DB,
		env.Logger,
		env.PeopleOptions...,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, *port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// ABOUTME: Shared dependencies for CLI commands
// ABOUTME: Carries config, logger, database, and output stream into each subcommand
package cli

import (
	"database/sql"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/harperreed/connections/config"
	"github.com/harperreed/connections/sync"
	"golang.org/x/oauth2"
	"golang.org/x/term"
	"google.golang.org/api/option"
)

// Env is built once in main and handed to every command.
type Env struct {
	Config *config.Config
	Logger *log.Logger
	DB     *sql.DB
	Out    io.Writer

	// Overrides for the Google endpoints; zero values mean production
	TokenEndpoint oauth2.Endpoint
	PeopleOptions []option.ClientOption
}

func (e *Env) store() *sync.CredentialStore {
	return sync.NewCredentialStore(e.Config.TokenPath, e.Config.CredentialsPath)
}

func (e *Env) authorizer(flow sync.CodeFlow) *sync.Authorizer {
	authorizer := sync.NewAuthorizer(e.store(), flow, e.Logger)
	if e.TokenEndpoint.TokenURL != "" {
		authorizer.WithEndpoint(e.TokenEndpoint)
	}
	return authorizer
}

func (e *Env) oauthConfig() *oauth2.Config {
	config := sync.NewOAuthConfig(e.Config.ClientID, e.Config.ClientSecret, e.Config.RedirectURL)
	if e.TokenEndpoint.TokenURL != "" {
		config.Endpoint = e.TokenEndpoint
	}
	return config
}

// isTerminal reports whether output goes to an interactive terminal.
func (e *Env) isTerminal() bool {
	f, ok := e.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}

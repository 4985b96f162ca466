// ABOUTME: OAuth configuration and authorization flows for the Google People API
// ABOUTME: Provides the load-or-login Authorizer, the browser redirect/callback steps, and a loopback login
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ContactsReadOnlyScope is the only scope this service ever requests.
const ContactsReadOnlyScope = "https://www.googleapis.com/auth/contacts.readonly"

// Scopes requested by every flow.
var Scopes = []string{ContactsReadOnlyScope}

// ErrAuthorizationFailed wraps any failure to obtain tokens from the provider.
var ErrAuthorizationFailed = errors.New("authorization failed")

// NewOAuthConfig creates the OAuth2 config used by the browser login routes.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// WebFlow is the authorization-code flow split into a redirect step and a callback step.
type WebFlow struct {
	config *oauth2.Config
}

func NewWebFlow(config *oauth2.Config) *WebFlow {
	return &WebFlow{config: config}
}

// AuthCodeURL returns the consent page URL, requesting offline access so a refresh token is issued.
func (f *WebFlow) AuthCodeURL() string {
	return f.config.AuthCodeURL("", oauth2.AccessTypeOffline)
}

// Exchange trades a one-time code for tokens.
func (f *WebFlow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code received", ErrAuthorizationFailed)
	}

	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange code: %w", ErrAuthorizationFailed, err)
	}

	return token, nil
}

// CodeFlow obtains tokens interactively from the user.
type CodeFlow interface {
	Authenticate(ctx context.Context) (*oauth2.Config, *oauth2.Token, error)
}

// Authorizer returns an authorized client, preferring the stored credential over a new login.
type Authorizer struct {
	store    *CredentialStore
	flow     CodeFlow
	endpoint oauth2.Endpoint
	logger   *log.Logger
}

// NewAuthorizer creates an Authorizer. flow may be nil, in which case a missing
// credential is an error instead of a login prompt.
func NewAuthorizer(store *CredentialStore, flow CodeFlow, logger *log.Logger) *Authorizer {
	return &Authorizer{
		store:    store,
		flow:     flow,
		endpoint: google.Endpoint,
		logger:   logger,
	}
}

// WithEndpoint overrides the token endpoint used with stored credentials.
func (a *Authorizer) WithEndpoint(endpoint oauth2.Endpoint) *Authorizer {
	a.endpoint = endpoint
	return a
}

// Authorize loads the stored credential, or runs the interactive flow and persists its refresh token.
func (a *Authorizer) Authorize(ctx context.Context) (*http.Client, error) {
	if cred, ok := a.store.Load(); ok {
		a.logger.Debug("using stored credential", "path", a.store.TokenPath())
		return CredentialClient(ctx, cred, a.endpoint, Scopes), nil
	}

	if a.flow == nil {
		return nil, fmt.Errorf("%w: no stored credential at %s", ErrAuthorizationFailed, a.store.TokenPath())
	}

	config, token, err := a.flow.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthorizationFailed, err)
	}

	if token.RefreshToken != "" {
		if err := a.store.Save(token.RefreshToken); err != nil {
			return nil, fmt.Errorf("failed to save credential: %w", err)
		}
		a.logger.Info("credential saved", "path", a.store.TokenPath())
	} else {
		a.logger.Warn("provider returned no refresh token; credential not saved")
	}

	return config.Client(ctx, token), nil
}

// LoopbackFlow runs the authorization-code flow against a temporary listener on 127.0.0.1.
type LoopbackFlow struct {
	registrationPath string
	openBrowser      func(url string) error
	out              io.Writer
}

// NewLoopbackFlow creates a flow configured from the registration file.
// openBrowser may be nil; the consent URL is always written to out.
func NewLoopbackFlow(registrationPath string, openBrowser func(url string) error, out io.Writer) *LoopbackFlow {
	return &LoopbackFlow{
		registrationPath: registrationPath,
		openBrowser:      openBrowser,
		out:              out,
	}
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// Authenticate blocks until the browser completes the callback or ctx is done.
func (f *LoopbackFlow) Authenticate(ctx context.Context) (*oauth2.Config, *oauth2.Token, error) {
	data, err := os.ReadFile(f.registrationPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read registration file: %w", err)
	}

	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse registration file: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	config.RedirectURL = fmt.Sprintf("http://localhost:%d/oauth2callback", port)
	state := ulid.Make().String()

	results := make(chan callbackResult, 1)
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("state mismatch in callback")})
			return
		}

		if reason := query.Get("error"); reason != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", reason)})
			return
		}

		code := query.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("no authorization code received")})
			return
		}

		token, err := config.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
			deliver(callbackResult{err: fmt.Errorf("failed to exchange code: %w", err)})
			return
		}

		_, _ = fmt.Fprint(w, "Authorization successful! You can close this window.")
		deliver(callbackResult{token: token})
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = server.Serve(listener) }()
	defer func() { _ = server.Shutdown(context.Background()) }()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	_, _ = fmt.Fprintf(f.out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	if f.openBrowser != nil {
		_ = f.openBrowser(authURL)
	}

	select {
	case res := <-results:
		if res.err != nil {
			return nil, nil, res.err
		}
		return config, res.token, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

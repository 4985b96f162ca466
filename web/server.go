// ABOUTME: HTTP server for the Google login flow and the connections listing
// ABOUTME: Serves /, /auth/google/callback, /connections, and /healthz
package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/connections/sync"
	"github.com/oklog/ulid/v2"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// TokenCookie holds the bare access token between the callback and /connections.
const TokenCookie = "token"

const (
	msgAuthFailed         = "Authentication failed"
	msgNoAccessToken      = "No access token found. Please login again."
	msgFetchFailed        = "Error fetching connections"
	msgNoConnectionsFound = "No connections found."
)

type Server struct {
	flow       *sync.WebFlow
	store      *sync.CredentialStore
	db         *sql.DB
	logger     *log.Logger
	peopleOpts []option.ClientOption
	mux        *http.ServeMux
}

// NewServer wires the routes. database may be nil; peopleOpts are passed to every People API client.
func NewServer(flow *sync.WebFlow, store *sync.CredentialStore, database *sql.DB, logger *log.Logger, peopleOpts ...option.ClientOption) *Server {
	s := &Server{
		flow:       flow,
		store:      store,
		db:         database,
		logger:     logger,
		peopleOpts: peopleOpts,
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleLogin)
	s.mux.HandleFunc("GET /auth/google/callback", s.handleCallback)
	s.mux.HandleFunc("GET /connections", s.handleConnections)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	return s
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Start listens on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(fmt.Sprintf("Server is running on http://localhost:%d", port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.flow.AuthCodeURL(), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	token, err := s.flow.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.logger.Error("code exchange failed", "err", err)
		http.Error(w, msgAuthFailed, http.StatusInternalServerError)
		return
	}

	if err := s.store.Save(token.RefreshToken); err != nil {
		if !errors.Is(err, sync.ErrNoRefreshToken) {
			s.logger.Error("failed to save credential", "err", err)
			http.Error(w, msgAuthFailed, http.StatusInternalServerError)
			return
		}
		// Google only issues a refresh token on first consent; keep whatever is stored.
		s.logger.Warn("no refresh token in exchange; stored credential left unchanged")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token.AccessToken,
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, "/connections", http.StatusFound)
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		http.Error(w, msgNoAccessToken, http.StatusUnauthorized)
		return
	}

	ctx := r.Context()

	// Each request carries its own token; nothing is shared between sessions.
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cookie.Value}))

	lister, err := sync.NewConnectionsLister(ctx, client, s.peopleOpts...)
	if err != nil {
		s.logger.Error("failed to create People client", "err", err)
		http.Error(w, msgFetchFailed, http.StatusInternalServerError)
		return
	}

	summaries, err := sync.NewConnectionsRun(s.db, "web").List(ctx, lister)
	if err != nil {
		var fetchErr *sync.FetchError
		if errors.As(err, &fetchErr) {
			s.logger.Error("Error fetching connections", "page", fetchErr.Page, "diagnostic", fetchErr.Diagnostic())
		} else {
			s.logger.Error("Error fetching connections", "err", err)
		}
		http.Error(w, msgFetchFailed, http.StatusInternalServerError)
		return
	}

	if len(summaries) == 0 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprint(w, msgNoConnectionsFound)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		s.logger.Error("failed to encode connections", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, "ok")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := ulid.Make().String()
		w.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

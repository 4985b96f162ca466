// ABOUTME: Tests for the list, status, and auth subcommands
// ABOUTME: Drives commands against a temp config and fake Google endpoints
package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/harperreed/connections/config"
	"github.com/harperreed/connections/db"
	"github.com/harperreed/connections/models"
	"github.com/harperreed/connections/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func setupEnv(t *testing.T, peopleBody string) (*Env, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.TokenPath = filepath.Join(dir, "token.json")
	cfg.CredentialsPath = filepath.Join(dir, "credentials.json")
	cfg.DBPath = filepath.Join(dir, "connections.db")
	require.NoError(t, os.WriteFile(cfg.CredentialsPath, []byte(`{"installed": {"client_id": "abc", "client_secret": "xyz"}}`), 0600))

	database, err := db.OpenDatabase(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a1","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenServer.Close)

	peopleServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(peopleBody))
	}))
	t.Cleanup(peopleServer.Close)

	out := &bytes.Buffer{}
	return &Env{
		Config:        cfg,
		Logger:        log.New(io.Discard),
		DB:            database,
		Out:           out,
		TokenEndpoint: oauth2.Endpoint{TokenURL: tokenServer.URL},
		PeopleOptions: []option.ClientOption{option.WithEndpoint(peopleServer.URL + "/")},
	}, out
}

func TestListCommand(t *testing.T) {
	env, out := setupEnv(t, `{"connections":[{"names":[{"displayName":"Ada"}],"phoneNumbers":[{"value":"555"}]},{}]}`)
	require.NoError(t, env.store().Save("r1"))

	require.NoError(t, ListCommand(env, []string{"--no-login"}))

	var summaries []models.ContactSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "Ada", summaries[0].Name)
	assert.Equal(t, models.NoDisplayName, summaries[1].Name)

	runs, err := db.RecentFetchRuns(env.DB, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cli", runs[0].Source)
	assert.Equal(t, 2, runs[0].Records)
}

func TestListCommandOutputFile(t *testing.T) {
	env, out := setupEnv(t, `{"connections":[{"names":[{"displayName":"Ada"}]}]}`)
	require.NoError(t, env.store().Save("r1"))

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, ListCommand(env, []string{"--no-login", "--output", path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Ada","phoneNumbers":"No phone numbers"}]`, string(data))
	assert.Contains(t, out.String(), "Wrote 1 connections")
}

func TestListCommandEmpty(t *testing.T) {
	env, out := setupEnv(t, `{}`)
	require.NoError(t, env.store().Save("r1"))

	require.NoError(t, ListCommand(env, []string{"--no-login"}))
	assert.Equal(t, "No connections found.\n", out.String())
}

func TestListCommandNotAuthorized(t *testing.T) {
	env, _ := setupEnv(t, `{}`)

	err := ListCommand(env, []string{"--no-login"})
	assert.ErrorIs(t, err, sync.ErrAuthorizationFailed)
}

func TestAuthCommandAlreadyAuthorized(t *testing.T) {
	env, out := setupEnv(t, `{}`)
	require.NoError(t, env.store().Save("r1"))

	require.NoError(t, AuthCommand(env, []string{"--no-browser"}))
	assert.Contains(t, out.String(), "Already authorized")
}

func TestStatusCommand(t *testing.T) {
	env, out := setupEnv(t, `{"connections":[{"names":[{"displayName":"Ada"}]}]}`)

	require.NoError(t, StatusCommand(env, nil))
	assert.Contains(t, out.String(), "not authorized")
	assert.Contains(t, out.String(), "never fetched")

	require.NoError(t, env.store().Save("r1"))
	require.NoError(t, ListCommand(env, []string{"--no-login"}))

	out.Reset()
	require.NoError(t, StatusCommand(env, nil))
	assert.Contains(t, out.String(), "authorized")
	assert.Contains(t, out.String(), "status: idle")
	assert.Contains(t, out.String(), "Recent runs")
	assert.Contains(t, out.String(), "cli")
	assert.NotContains(t, out.String(), "\x1b[", "no ANSI styling when not writing to a terminal")
}

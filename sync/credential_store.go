// ABOUTME: Persistence for the authorized_user credential and the app registration file
// ABOUTME: Loads fail soft; saves overwrite the token file with client identity plus refresh token
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/harperreed/connections/models"
	"golang.org/x/oauth2"
)

var (
	// ErrNoClientKey means the registration file has neither an "installed" nor a "web" key.
	ErrNoClientKey = errors.New("registration file has no installed or web client key")

	// ErrNoRefreshToken means there is nothing worth persisting.
	ErrNoRefreshToken = errors.New("no refresh token to save")
)

// CredentialStore reads and writes a single persisted credential.
type CredentialStore struct {
	tokenPath        string
	registrationPath string
}

// NewCredentialStore creates a store bound to the credential file and the registration file.
func NewCredentialStore(tokenPath, registrationPath string) *CredentialStore {
	return &CredentialStore{
		tokenPath:        tokenPath,
		registrationPath: registrationPath,
	}
}

// TokenPath returns where the credential is persisted.
func (s *CredentialStore) TokenPath() string {
	return s.tokenPath
}

// RegistrationPath returns the application registration file path.
func (s *CredentialStore) RegistrationPath() string {
	return s.registrationPath
}

// Load returns the persisted credential. Any read or parse problem is reported as absent.
func (s *CredentialStore) Load() (*models.Credential, bool) {
	data, err := os.ReadFile(s.tokenPath)
	if err != nil {
		return nil, false
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, false
	}

	if cred.Type != models.CredentialTypeAuthorizedUser || cred.RefreshToken == "" {
		return nil, false
	}

	return &cred, true
}

// ReadClientKey reads the registration file and selects the installed or web key.
func (s *CredentialStore) ReadClientKey() (*models.ClientKey, error) {
	data, err := os.ReadFile(s.registrationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registration file: %w", err)
	}

	var reg models.Registration
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registration file: %w", err)
	}

	switch {
	case reg.Installed != nil:
		return reg.Installed, nil
	case reg.Web != nil:
		return reg.Web, nil
	default:
		return nil, ErrNoClientKey
	}
}

// Save overwrites the credential file with the registered client identity and refreshToken.
func (s *CredentialStore) Save(refreshToken string) error {
	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	key, err := s.ReadClientKey()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(models.Credential{
		Type:         models.CredentialTypeAuthorizedUser,
		ClientID:     key.ClientID,
		ClientSecret: key.ClientSecret,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if dir := filepath.Dir(s.tokenPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.tokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// CredentialConfig builds the OAuth2 config a stored credential authorizes against.
func CredentialConfig(cred *models.Credential, endpoint oauth2.Endpoint, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

// CredentialClient returns an HTTP client that mints access tokens from the stored refresh token.
// No request is made until the client is first used.
func CredentialClient(ctx context.Context, cred *models.Credential, endpoint oauth2.Endpoint, scopes []string) *http.Client {
	config := CredentialConfig(cred, endpoint, scopes)
	return config.Client(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
}

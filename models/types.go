// ABOUTME: Data models for stored credentials, Google contacts summaries, and fetch runs
// ABOUTME: Defines Credential, ClientKey, ContactSummary, PhoneNumbers, and FetchRun structs
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// CredentialTypeAuthorizedUser marks a credential built from a user's refresh token.
	CredentialTypeAuthorizedUser = "authorized_user"

	// NoDisplayName is the summary name used when a contact has no names.
	NoDisplayName = "No display name"

	// NoPhoneNumbers replaces the phone list when a contact has none.
	NoPhoneNumbers = "No phone numbers"
)

// Credential is the persisted authorization grant. Field order is the on-disk key order.
type Credential struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// ClientKey is one application registration variant from the registration file.
type ClientKey struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
}

// Registration mirrors the registration file, which carries exactly one of the two variants.
type Registration struct {
	Installed *ClientKey `json:"installed,omitempty"`
	Web       *ClientKey `json:"web,omitempty"`
}

// ContactSummary is the flattened shape returned for each connection.
type ContactSummary struct {
	Name         string       `json:"name"`
	PhoneNumbers PhoneNumbers `json:"phoneNumbers"`
}

// PhoneNumbers encodes as a JSON array, or as the NoPhoneNumbers string when empty.
type PhoneNumbers []string

func (p PhoneNumbers) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return json.Marshal(NoPhoneNumbers)
	}
	return json.Marshal([]string(p))
}

func (p *PhoneNumbers) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = nil
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*p = values
	return nil
}

// Fetch run statuses.
const (
	FetchStatusOK    = "ok"
	FetchStatusEmpty = "empty"
	FetchStatusError = "error"
)

// FetchRun records one full pagination over the connections list.
type FetchRun struct {
	ID         uuid.UUID  `json:"id"`
	Source     string     `json:"source"`
	Pages      int        `json:"pages"`
	Records    int        `json:"records"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ABOUTME: Full pagination over the connections list and projection into summaries
// ABOUTME: Records each run in the fetch ledger when a database is configured
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/connections/db"
	"github.com/harperreed/connections/models"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/people/v1"
)

// ConnectionsService is the sync_state key for connection fetches.
const ConnectionsService = "connections"

// FetchError reports the page whose request aborted the pagination.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch connections page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Diagnostic returns whatever payload the provider attached to the failure.
func (e *FetchError) Diagnostic() string {
	var apiErr *googleapi.Error
	if errors.As(e.Err, &apiErr) {
		if apiErr.Body != "" {
			return apiErr.Body
		}
		return apiErr.Message
	}
	return e.Err.Error()
}

// FetchAllConnections requests pages in order until the provider stops returning a page token.
// There is no page limit. Any failed page discards everything fetched so far.
func FetchAllConnections(ctx context.Context, lister ConnectionsLister) ([]*people.Person, int, error) {
	var (
		connections []*people.Person
		pageToken   string
		pages       int
	)

	for {
		pages++
		response, err := lister.ListConnections(ctx, pageToken)
		if err != nil {
			return nil, pages, &FetchError{Page: pages, Err: err}
		}
		if response == nil {
			break
		}

		connections = append(connections, response.Connections...)

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return connections, pages, nil
}

// ProjectPerson converts a People API person to its summary.
func ProjectPerson(person *people.Person) models.ContactSummary {
	summary := models.ContactSummary{Name: models.NoDisplayName}

	if len(person.Names) > 0 && person.Names[0] != nil {
		summary.Name = person.Names[0].DisplayName
	}

	if len(person.PhoneNumbers) > 0 {
		phones := make(models.PhoneNumbers, 0, len(person.PhoneNumbers))
		for _, phone := range person.PhoneNumbers {
			if phone == nil {
				continue
			}
			phones = append(phones, phone.Value)
		}
		summary.PhoneNumbers = phones
	}

	return summary
}

// ProjectConnections projects every person, preserving order.
func ProjectConnections(connections []*people.Person) []models.ContactSummary {
	summaries := make([]models.ContactSummary, 0, len(connections))
	for _, person := range connections {
		if person == nil {
			continue
		}
		summaries = append(summaries, ProjectPerson(person))
	}
	return summaries
}

// ListAllConnections fetches every page and projects the result.
// An empty, non-nil slice with a nil error means the user has no connections.
func ListAllConnections(ctx context.Context, lister ConnectionsLister) ([]models.ContactSummary, error) {
	connections, _, err := FetchAllConnections(ctx, lister)
	if err != nil {
		return nil, err
	}
	return ProjectConnections(connections), nil
}

// ConnectionsRun lists all connections and records the outcome in the fetch ledger.
type ConnectionsRun struct {
	database *sql.DB
	source   string
}

// NewConnectionsRun creates a run recorder. database may be nil to skip recording.
func NewConnectionsRun(database *sql.DB, source string) *ConnectionsRun {
	return &ConnectionsRun{database: database, source: source}
}

// List behaves like ListAllConnections. Ledger write failures are returned only when the fetch succeeded.
func (r *ConnectionsRun) List(ctx context.Context, lister ConnectionsLister) ([]models.ContactSummary, error) {
	if r.database == nil {
		return ListAllConnections(ctx, lister)
	}

	run := &models.FetchRun{
		ID:        uuid.New(),
		Source:    r.source,
		StartedAt: time.Now().UTC(),
	}

	if err := db.UpdateSyncStatus(r.database, ConnectionsService, "syncing", nil); err != nil {
		return nil, err
	}

	connections, pages, fetchErr := FetchAllConnections(ctx, lister)
	run.Pages = pages
	run.Records = len(connections)

	finished := time.Now().UTC()
	run.FinishedAt = &finished

	switch {
	case fetchErr != nil:
		run.Status = models.FetchStatusError
		run.Error = fetchErr.Error()
		_ = db.RecordFetchRun(r.database, run)
		_ = db.UpdateSyncStatus(r.database, ConnectionsService, "error", &run.Error)
		return nil, fetchErr
	case len(connections) == 0:
		run.Status = models.FetchStatusEmpty
	default:
		run.Status = models.FetchStatusOK
	}

	if err := db.RecordFetchRun(r.database, run); err != nil {
		return nil, err
	}
	if err := db.MarkSyncComplete(r.database, ConnectionsService, finished); err != nil {
		return nil, err
	}

	return ProjectConnections(connections), nil
}

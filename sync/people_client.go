// ABOUTME: Google People API client for listing the user's connections
// ABOUTME: Wraps people.Service behind a single-page ConnectionsLister
package sync

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

const (
	// OwnConnections is the resource name for the authenticated user's contact list.
	OwnConnections = "people/me"

	// ConnectionsPageSize is requested on every page.
	ConnectionsPageSize = 100

	// ConnectionsPersonFields lists the fields requested for each person.
	ConnectionsPersonFields = "names,emailAddresses,phoneNumbers"
)

// ConnectionsLister fetches one page of connections. An empty pageToken requests the first page.
type ConnectionsLister interface {
	ListConnections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error)
}

// PeopleLister lists connections through the People API.
type PeopleLister struct {
	service *people.Service
}

// NewPeopleClient creates a People API service over an already authorized HTTP client.
// Extra options (such as option.WithEndpoint) are appended after the HTTP client.
func NewPeopleClient(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*people.Service, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return service, nil
}

func NewPeopleLister(service *people.Service) *PeopleLister {
	return &PeopleLister{service: service}
}

// ListConnections requests a single page of the user's own connections.
func (l *PeopleLister) ListConnections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	call := l.service.People.Connections.List(OwnConnections).
		PageSize(ConnectionsPageSize).
		PersonFields(ConnectionsPersonFields).
		Context(ctx)

	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	return call.Do()
}

// NewConnectionsLister creates a People API lister over an authorized HTTP client.
func NewConnectionsLister(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*PeopleLister, error) {
	service, err := NewPeopleClient(ctx, client, opts...)
	if err != nil {
		return nil, err
	}
	return NewPeopleLister(service), nil
}

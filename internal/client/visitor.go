package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/HammerMeetNail/birthdaysurprise/internal/flow"
)

// VisitorStore persists the countdown flag for one visitor through the API.
type VisitorStore struct {
	client *Client
	path   string
}

type countdownState struct {
	Elapsed bool `json:"elapsed"`
}

func (c *Client) Visitor(visitorID string) (*VisitorStore, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, errors.New("client: visitor id must not be empty")
	}
	return &VisitorStore{
		client: c,
		path:   "/api/visitors/" + url.PathEscape(visitorID) + "/countdown",
	}, nil
}

func (v *VisitorStore) CountdownElapsed(ctx context.Context) (bool, error) {
	var state countdownState
	if err := v.client.doJSON(ctx, http.MethodGet, v.path, nil, &state); err != nil {
		return false, err
	}
	return state.Elapsed, nil
}

func (v *VisitorStore) MarkCountdownElapsed(ctx context.Context) error {
	return v.client.doJSON(ctx, http.MethodPut, v.path, nil, nil)
}

// Reset forgets the flag so the countdown shows again.
func (v *VisitorStore) Reset(ctx context.Context) error {
	return v.client.doJSON(ctx, http.MethodDelete, v.path, nil, nil)
}

var _ flow.ElapsedStore = (*VisitorStore)(nil)

package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

type staticProvider struct {
	cfg models.SurpriseConfig
}

func (s staticProvider) Get(ctx context.Context) models.SurpriseConfig { return s.cfg }

func testSurpriseConfig() models.SurpriseConfig {
	return models.SurpriseConfig{
		RecipientName:   "Sam",
		TargetDate:      "2026-10-20T00:00:00Z",
		BirthdayMessage: "Have the best day!",
		SenderEmail:     "pal@example.com",
		Gifts: []models.Gift{
			{ID: "hug", Label: "Box 1", Content: "Hugs"},
		},
	}
}

type mockMessageService struct {
	CreateFunc func(ctx context.Context, params models.CreateMessageParams) (*models.Message, error)
}

func (m *mockMessageService) Create(ctx context.Context, params models.CreateMessageParams) (*models.Message, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

type mockVisitorService struct {
	CountdownElapsedFunc     func(ctx context.Context, visitorID string) (bool, error)
	MarkCountdownElapsedFunc func(ctx context.Context, visitorID string) error
	ResetFunc                func(ctx context.Context, visitorID string) error
}

func (m *mockVisitorService) CountdownElapsed(ctx context.Context, visitorID string) (bool, error) {
	if m.CountdownElapsedFunc != nil {
		return m.CountdownElapsedFunc(ctx, visitorID)
	}
	return false, nil
}

func (m *mockVisitorService) MarkCountdownElapsed(ctx context.Context, visitorID string) error {
	if m.MarkCountdownElapsedFunc != nil {
		return m.MarkCountdownElapsedFunc(ctx, visitorID)
	}
	return nil
}

func (m *mockVisitorService) Reset(ctx context.Context, visitorID string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, visitorID)
	}
	return nil
}

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d", status, rr.Code)
	}
	var response ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if response.Error != message {
		t.Fatalf("expected error %q, got %q", message, response.Error)
	}
}

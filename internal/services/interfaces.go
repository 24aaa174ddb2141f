package services

import (
	"context"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

type MessageServiceInterface interface {
	Create(ctx context.Context, params models.CreateMessageParams) (*models.Message, error)
}

type VisitorServiceInterface interface {
	CountdownElapsed(ctx context.Context, visitorID string) (bool, error)
	MarkCountdownElapsed(ctx context.Context, visitorID string) error
	Reset(ctx context.Context, visitorID string) error
}

var (
	_ MessageServiceInterface = (*MessageService)(nil)
	_ VisitorServiceInterface = (*VisitorService)(nil)
	_ SurpriseConfigProvider  = (*SurpriseConfigService)(nil)
	_ MessageNotifier         = (*EmailService)(nil)
)

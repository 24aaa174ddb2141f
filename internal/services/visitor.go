package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

var (
	ErrInvalidVisitorID    = errors.New("invalid visitor id")
	ErrCountdownNotElapsed = errors.New("countdown has not elapsed")
)

// VisitorService remembers, per visitor, that the countdown has been seen to
// finish so later visits skip straight past it.
type VisitorService struct {
	flags  FlagStore
	config SurpriseConfigProvider
	ttl    time.Duration
	now    func() time.Time
}

func NewVisitorService(flags FlagStore, config SurpriseConfigProvider, ttl time.Duration) *VisitorService {
	return &VisitorService{flags: flags, config: config, ttl: ttl, now: time.Now}
}

func countdownKey(visitorID string) string {
	return fmt.Sprintf("visitor:%s:countdown", visitorID)
}

// CountdownElapsed reports the stored flag and refreshes its expiry.
func (s *VisitorService) CountdownElapsed(ctx context.Context, visitorID string) (bool, error) {
	if !models.ValidVisitorID(visitorID) {
		return false, ErrInvalidVisitorID
	}
	elapsed, err := s.flags.TouchFlag(ctx, countdownKey(visitorID), s.ttl)
	if err != nil {
		return false, fmt.Errorf("reading visitor state: %w", err)
	}
	return elapsed, nil
}

// MarkCountdownElapsed stores the flag. The target must already have passed.
func (s *VisitorService) MarkCountdownElapsed(ctx context.Context, visitorID string) error {
	if !models.ValidVisitorID(visitorID) {
		return ErrInvalidVisitorID
	}
	target := s.config.Get(ctx).Target()
	if !target.IsZero() && s.now().Before(target) {
		return ErrCountdownNotElapsed
	}
	if err := s.flags.SetFlag(ctx, countdownKey(visitorID), s.ttl); err != nil {
		return fmt.Errorf("storing visitor state: %w", err)
	}
	return nil
}

func (s *VisitorService) Reset(ctx context.Context, visitorID string) error {
	if !models.ValidVisitorID(visitorID) {
		return ErrInvalidVisitorID
	}
	if err := s.flags.ClearFlag(ctx, countdownKey(visitorID)); err != nil {
		return fmt.Errorf("clearing visitor state: %w", err)
	}
	return nil
}

package models

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidTargetDate  = errors.New("targetDate must be an ISO-8601 timestamp")
	ErrInvalidSenderEmail = errors.New("senderEmail must be a valid email address")
	ErrGiftIDRequired     = errors.New("gift id is required")
	ErrDuplicateGiftID    = errors.New("gift ids must be unique")
)

// Gift is one box on the picker screen.
type Gift struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Content string `json:"content" yaml:"content"`
	Image   string `json:"image,omitempty" yaml:"image,omitempty"`
}

// SurpriseConfig is the document served at GET /api/config.
type SurpriseConfig struct {
	RecipientName   string `json:"recipientName" yaml:"recipientName"`
	TargetDate      string `json:"targetDate" yaml:"targetDate"`
	BirthdayMessage string `json:"birthdayMessage" yaml:"birthdayMessage"`
	SenderEmail     string `json:"senderEmail" yaml:"senderEmail"`
	Gifts           []Gift `json:"gifts" yaml:"gifts"`
}

const DefaultBirthdayMessage = "Happy Birthday! You are the best friend anyone could ask for. Here's to another year of adventures!"

// targetLayouts are tried in order when parsing targetDate. A bare date is
// midnight UTC. Zoneless date-times are rejected because the instant would be
// ambiguous.
var targetLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04Z07:00",
	time.DateOnly,
}

func ParseTargetDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range targetLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTargetDate, raw)
}

// Target returns the parsed target instant. Callers are expected to have
// validated the document; an unparsable date yields the zero time.
func (c SurpriseConfig) Target() time.Time {
	t, err := ParseTargetDate(c.TargetDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Validate checks the fields the flow cannot work without. Names, messages and
// gift contents may be empty.
func (c SurpriseConfig) Validate() error {
	if _, err := ParseTargetDate(c.TargetDate); err != nil {
		return err
	}
	if !IsValidEmail(c.SenderEmail) {
		return ErrInvalidSenderEmail
	}

	seen := make(map[string]struct{}, len(c.Gifts))
	for i, gift := range c.Gifts {
		if strings.TrimSpace(gift.ID) == "" {
			return fmt.Errorf("gift %d: %w", i, ErrGiftIDRequired)
		}
		if _, dup := seen[gift.ID]; dup {
			return fmt.Errorf("gift %q: %w", gift.ID, ErrDuplicateGiftID)
		}
		seen[gift.ID] = struct{}{}
	}
	return nil
}

// Greeting is the headline shown to the recipient. An empty name drops the
// comma.
func Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Happy Birthday!"
	}
	return "Happy Birthday, " + name + "!"
}

// IsValidEmail accepts a bare address (no display name).
func IsValidEmail(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	if addr.Address != value {
		return false
	}
	domain := value[strings.LastIndex(value, "@")+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

var visitorIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// ValidVisitorID accepts the opaque ids clients use to remember a finished
// countdown, UUIDs included.
func ValidVisitorID(id string) bool {
	return visitorIDPattern.MatchString(id)
}

// FallbackGifts is the picker content used when a document lists no gifts.
func FallbackGifts() []Gift {
	return []Gift{
		{ID: "1", Label: "Mystery Box 1", Content: "A big warm hug! 🤗"},
		{ID: "2", Label: "Mystery Box 2", Content: "Dinner on me! 🍕"},
		{ID: "3", Label: "Mystery Box 3", Content: "Movie night choice! 🎬"},
	}
}

// DefaultSurpriseConfig is served whenever no valid document is available.
// The countdown targets one day after now.
func DefaultSurpriseConfig(now time.Time) SurpriseConfig {
	return SurpriseConfig{
		RecipientName:   "Bestie",
		TargetDate:      now.Add(24 * time.Hour).UTC().Format(time.RFC3339),
		BirthdayMessage: DefaultBirthdayMessage,
		SenderEmail:     "sender@example.com",
		Gifts: []Gift{
			{ID: "1", Label: "Mystery Box 1", Content: "Unlimited Hugs Coupon! 🤗"},
			{ID: "2", Label: "Mystery Box 2", Content: "Coffee Date on Me! ☕"},
			{ID: "3", Label: "Mystery Box 3", Content: "Movie Night Choice! 🎬"},
		},
	}
}

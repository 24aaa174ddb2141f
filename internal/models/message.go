package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMessageSender = "Anonymous"
	MaxMessageLength     = 5000
	MaxSenderLength      = 100
)

// Message is a reply left on the letter screen.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateMessageParams struct {
	Content string `json:"content"`
	Sender  string `json:"sender,omitempty"`
}

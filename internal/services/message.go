package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

var (
	ErrMessageContentRequired = errors.New("message content is required")
	ErrMessageTooLong         = errors.New("message content is too long")
	ErrSenderTooLong          = errors.New("sender is too long")
)

// MessageStore persists letter replies.
type MessageStore interface {
	InsertMessage(ctx context.Context, content, sender string) (*models.Message, error)
}

// MessageNotifier is told about every stored message.
type MessageNotifier interface {
	NotifyMessage(ctx context.Context, cfg models.SurpriseConfig, msg *models.Message) error
}

type PostgresMessageStore struct {
	db DBConn
}

func NewPostgresMessageStore(db DBConn) *PostgresMessageStore {
	return &PostgresMessageStore{db: db}
}

func (s *PostgresMessageStore) InsertMessage(ctx context.Context, content, sender string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO messages (content, sender)
		 VALUES ($1, $2)
		 RETURNING id, content, sender, created_at`,
		content, sender,
	).Scan(&msg.ID, &msg.Content, &msg.Sender, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	return msg, nil
}

type SQLiteMessageStore struct {
	db    *sql.DB
	now   func() time.Time
	newID func() uuid.UUID
}

func NewSQLiteMessageStore(db *sql.DB) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db, now: time.Now, newID: uuid.New}
}

func (s *SQLiteMessageStore) InsertMessage(ctx context.Context, content, sender string) (*models.Message, error) {
	msg := &models.Message{
		ID:        s.newID(),
		Content:   content,
		Sender:    sender,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, content, sender, created_at) VALUES (?, ?, ?, ?)`,
		msg.ID.String(), msg.Content, msg.Sender, msg.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	return msg, nil
}

type MessageService struct {
	store    MessageStore
	notifier MessageNotifier
	config   SurpriseConfigProvider
	logger   *logging.Logger
	asyncCtx context.Context
	runAsync func(func())
}

func NewMessageService(store MessageStore, notifier MessageNotifier, config SurpriseConfigProvider, logger *logging.Logger) *MessageService {
	if logger == nil {
		logger = logging.Default
	}
	return &MessageService{
		store:    store,
		notifier: notifier,
		config:   config,
		logger:   logger,
		asyncCtx: context.Background(),
		runAsync: func(fn func()) { go fn() },
	}
}

// SetAsyncContext bounds background notifications to ctx, typically the
// server's lifetime.
func (s *MessageService) SetAsyncContext(ctx context.Context) {
	if ctx != nil {
		s.asyncCtx = ctx
	}
}

// NormalizeMessage trims input, applies the default sender and enforces limits.
func NormalizeMessage(params models.CreateMessageParams) (models.CreateMessageParams, error) {
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return params, ErrMessageContentRequired
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return params, ErrMessageTooLong
	}
	sender := strings.TrimSpace(params.Sender)
	if sender == "" {
		sender = models.DefaultMessageSender
	}
	if utf8.RuneCountInString(sender) > models.MaxSenderLength {
		return params, ErrSenderTooLong
	}
	return models.CreateMessageParams{Content: content, Sender: sender}, nil
}

func (s *MessageService) Create(ctx context.Context, params models.CreateMessageParams) (*models.Message, error) {
	normalized, err := NormalizeMessage(params)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.InsertMessage(ctx, normalized.Content, normalized.Sender)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Message stored", map[string]interface{}{
		"message_id": msg.ID.String(),
		"sender":     msg.Sender,
	})

	if s.notifier != nil && s.config != nil {
		stored := *msg
		s.runAsync(func() {
			notifyCtx, cancel := context.WithTimeout(s.asyncCtx, 15*time.Second)
			defer cancel()
			cfg := s.config.Get(notifyCtx)
			if err := s.notifier.NotifyMessage(notifyCtx, cfg, &stored); err != nil {
				s.logger.Warn("Message notification failed", map[string]interface{}{
					"message_id": stored.ID.String(),
					"error":      err.Error(),
				})
			}
		})
	}

	return msg, nil
}

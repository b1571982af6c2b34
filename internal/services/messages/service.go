package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("invalid message payload")
	ErrNotFound        = errors.New("message not found")
	ErrForbidden       = errors.New("not a participant of this message")
	ErrRecipientAbsent = errors.New("recipient does not exist")
)

const maxBodyLength = 2000

type MessageStore interface {
	Create(ctx context.Context, fromUsername, toUsername, body string) (postgres.MessageRecord, error)
	GetByID(ctx context.Context, id int64) (postgres.MessageRecord, error)
	MarkRead(ctx context.Context, id int64) (postgres.MessageRecord, error)
	ListTo(ctx context.Context, username string) ([]postgres.ThreadMessageRecord, error)
	ListFrom(ctx context.Context, username string) ([]postgres.ThreadMessageRecord, error)
}

type UserChecker interface {
	Exists(ctx context.Context, username string) (bool, error)
}

type Service struct {
	store MessageStore
	users UserChecker
}

func NewService(store MessageStore, users UserChecker) *Service {
	return &Service{store: store, users: users}
}

func (s *Service) Send(ctx context.Context, fromUsername, toUsername, body string) (model.Message, error) {
	fromUsername = strings.TrimSpace(fromUsername)
	toUsername = strings.TrimSpace(toUsername)
	body = strings.TrimSpace(body)

	if fromUsername == "" || toUsername == "" {
		return model.Message{}, ErrValidation
	}
	if fromUsername == toUsername {
		return model.Message{}, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}
	if body == "" {
		return model.Message{}, fmt.Errorf("%w: body is required", ErrValidation)
	}
	if utf8.RuneCountInString(body) > maxBodyLength {
		return model.Message{}, fmt.Errorf("%w: body exceeds %d characters", ErrValidation, maxBodyLength)
	}

	exists, err := s.users.Exists(ctx, toUsername)
	if err != nil {
		return model.Message{}, err
	}
	if !exists {
		return model.Message{}, ErrRecipientAbsent
	}

	rec, err := s.store.Create(ctx, fromUsername, toUsername, body)
	if err != nil {
		return model.Message{}, err
	}

	return toMessage(rec), nil
}

// Get returns the message only to its sender or recipient.
func (s *Service) Get(ctx context.Context, id int64, requester string) (model.Message, error) {
	if id <= 0 {
		return model.Message{}, ErrValidation
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrMessageNotFound) {
			return model.Message{}, ErrNotFound
		}
		return model.Message{}, err
	}

	if rec.FromUsername != requester && rec.ToUsername != requester {
		return model.Message{}, ErrForbidden
	}

	return toMessage(rec), nil
}

// MarkRead stamps read_at exactly once and only for the recipient. Marking
// an already-read message returns it unchanged.
func (s *Service) MarkRead(ctx context.Context, id int64, requester string) (model.Message, error) {
	if id <= 0 {
		return model.Message{}, ErrValidation
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrMessageNotFound) {
			return model.Message{}, ErrNotFound
		}
		return model.Message{}, err
	}
	if rec.ToUsername != requester {
		return model.Message{}, ErrForbidden
	}

	updated, err := s.store.MarkRead(ctx, id)
	if err != nil {
		return model.Message{}, err
	}

	return toMessage(updated), nil
}

func (s *Service) ListReceived(ctx context.Context, username string) ([]model.ThreadMessage, error) {
	recs, err := s.store.ListTo(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return toThread(recs), nil
}

func (s *Service) ListSent(ctx context.Context, username string) ([]model.ThreadMessage, error) {
	recs, err := s.store.ListFrom(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return toThread(recs), nil
}

func toMessage(rec postgres.MessageRecord) model.Message {
	return model.Message{
		ID:           rec.ID,
		FromUsername: rec.FromUsername,
		ToUsername:   rec.ToUsername,
		Body:         rec.Body,
		SentAt:       rec.SentAt,
		ReadAt:       rec.ReadAt,
	}
}

func toThread(recs []postgres.ThreadMessageRecord) []model.ThreadMessage {
	items := make([]model.ThreadMessage, 0, len(recs))
	for _, rec := range recs {
		items = append(items, model.ThreadMessage{
			ID:                   rec.ID,
			CounterpartUsername:  rec.CounterpartUsername,
			CounterpartFirstName: rec.CounterpartFirstName,
			CounterpartLastName:  rec.CounterpartLastName,
			Body:                 rec.Body,
			SentAt:               rec.SentAt,
			ReadAt:               rec.ReadAt,
		})
	}
	return items
}

package chat

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/storage"
)

var (
	ErrEmptyMessage = errors.New("message needs text or an image")
	ErrSelfMessage  = errors.New("cannot message yourself")
)

const defaultHistoryLimit = 50

// Service handles buyer-seller messaging.
type Service struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	blobs    storage.BlobStore
}

func NewService(messages repository.MessageRepository, users repository.UserRepository, blobs storage.BlobStore) *Service {
	return &Service{messages: messages, users: users, blobs: blobs}
}

func (s *Service) Send(ctx context.Context, session domain.Session, toID, text string) (*domain.Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return s.send(ctx, session, toID, text, "")
}

// SendImage uploads the image and sends a message referencing it.
func (s *Service) SendImage(ctx context.Context, session domain.Session, toID string, r io.Reader) (*domain.Message, error) {
	key, err := s.blobs.Save(ctx, "messages", session.UserID, "image", r)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, session, toID, "", key)
}

func (s *Service) send(ctx context.Context, session domain.Session, toID, text, imageURL string) (*domain.Message, error) {
	if toID == session.UserID {
		return nil, ErrSelfMessage
	}
	if _, err := s.users.GetByID(ctx, toID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		FromID:    session.UserID,
		ToID:      toID,
		Text:      text,
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Conversation returns the newest messages between the caller and the other
// user, both directions.
func (s *Service) Conversation(ctx context.Context, session domain.Session, otherID string, limit int64) ([]domain.Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.messages.Conversation(ctx, session.UserID, otherID, limit)
}

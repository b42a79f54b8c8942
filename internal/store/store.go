// Package store implements the Entity Store and Query Layer for interaction
// records. The gateway depends only on the Store interface; GormStore backs
// it with SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"

	"sitepulse/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup by id or session id has no match.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an idempotent create could not converge
	// on a single record.
	ErrConflict = errors.New("conflicting concurrent write")
)

// Store is the storage contract shared by every backend.
type Store interface {
	CreateContact(ctx context.Context, c *domain.Contact) error
	GetContact(ctx context.Context, id string) (*domain.Contact, error)
	UpdateContact(ctx context.Context, id string, patch ContactPatch) (*domain.Contact, error)
	DeleteContact(ctx context.Context, id string) (bool, error)
	ListContacts(ctx context.Context, f ContactFilter, p Page) (*PageResult[domain.Contact], error)

	// CreateConversation is idempotent on SessionID. It reports whether a
	// new record was stored; otherwise c is replaced by the existing record.
	CreateConversation(ctx context.Context, c *domain.Conversation) (bool, error)
	GetConversationBySession(ctx context.Context, sessionID string, withMessages bool) (*domain.Conversation, error)
	EndConversation(ctx context.Context, sessionID string, at time.Time) (*domain.Conversation, error)
	DeleteConversation(ctx context.Context, id string) (bool, error)
	CompleteIdleConversations(ctx context.Context, idleSince, at time.Time) (int64, error)
	ListConversations(ctx context.Context, f ConversationFilter, p Page) (*PageResult[domain.Conversation], error)

	// AppendMessage resolves or creates the conversation described by seed,
	// attaches m to it and recomputes its message count.
	AppendMessage(ctx context.Context, seed *domain.Conversation, m *domain.Message) (*domain.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)

	CreateFeedback(ctx context.Context, f *domain.Feedback) error
	DeleteFeedback(ctx context.Context, id string) (bool, error)
	ListFeedback(ctx context.Context, f FeedbackFilter, p Page) (*PageResult[domain.Feedback], error)

	CreateEvent(ctx context.Context, e *domain.AnalyticsEvent) error
	ListEvents(ctx context.Context, f EventFilter, p Page) (*PageResult[domain.AnalyticsEvent], error)

	Ping(ctx context.Context) error
}

// ContactPatch carries the admin-editable contact fields. Nil means unchanged.
type ContactPatch struct {
	Status *domain.ContactStatus
	Notes  *string
}

// ContactFilter narrows a contact listing. Empty fields are ignored.
type ContactFilter struct {
	Status      domain.ContactStatus
	ProjectType string
	// Search is a case-insensitive substring match over name, email and company.
	Search string
}

// ConversationFilter narrows a conversation listing. From/To bound
// StartTime as a half-open interval [From, To); zero values are unbounded.
type ConversationFilter struct {
	UserEmail string
	From      time.Time
	To        time.Time
}

// FeedbackFilter narrows a feedback listing.
type FeedbackFilter struct {
	Rating    *int
	MinRating *int
	MaxRating *int
	Type      domain.FeedbackType
	// UserEmail matches the feedback's own email or the email of the
	// conversation it references.
	UserEmail string
}

// EventFilter narrows an analytics event listing.
type EventFilter struct {
	EventType string
	SessionID string
	UserEmail string
}

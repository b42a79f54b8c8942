// Package domain holds the persisted interaction entities shared by the
// store, the aggregation engine and the gateway.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrImmutableEvent is returned when something tries to update an analytics event.
var ErrImmutableEvent = errors.New("analytics events are append-only")

// NewID returns a new opaque entity id.
func NewID() string {
	return uuid.NewString()
}

// Now is the clock used by model hooks. Timestamps are always stored in UTC.
var Now = func() time.Time {
	return time.Now().UTC()
}

// AllModels lists every model for auto-migration.
func AllModels() []any {
	return []any{
		&Contact{},
		&Conversation{},
		&Message{},
		&Feedback{},
		&AnalyticsEvent{},
	}
}

// EmailSighting is one occurrence of a contact email, used to derive
// distinct-visitor metrics.
type EmailSighting struct {
	Email     string
	CreatedAt time.Time
}

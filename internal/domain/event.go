package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalyticsEvent is an append-only tracked interaction. EventData is stored
// as JSON (JSONB on PostgreSQL) and its shape depends on EventType.
type AnalyticsEvent struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	EventType string         `gorm:"size:100;not null;index" json:"eventType"`
	EventData datatypes.JSON `json:"eventData"`
	UserEmail *string        `gorm:"size:254;index" json:"userEmail"`
	SessionID *string        `gorm:"size:128;index" json:"sessionId"`
	CreatedAt time.Time      `gorm:"not null;index" json:"createdAt"`
}

// TableName specifies the table name for AnalyticsEvent
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// BeforeCreate hook
func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	if len(e.EventData) == 0 {
		e.EventData = datatypes.JSON("{}")
	}
	e.CreatedAt = Now()
	return nil
}

// BeforeUpdate rejects every update; events are never mutated.
func (e *AnalyticsEvent) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableEvent
}

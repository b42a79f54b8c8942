package domain

import (
	"time"

	"gorm.io/gorm"
)

// ConversationStatus is the lifecycle state of a chat session
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
)

// Conversation represents one chatbot session. It owns its Messages.
type Conversation struct {
	ID           string             `gorm:"primaryKey;size:36" json:"id"`
	SessionID    string             `gorm:"size:128;not null;uniqueIndex" json:"sessionId"`
	UserEmail    *string            `gorm:"size:254;index" json:"userEmail"`
	UserName     *string            `gorm:"size:100" json:"userName"`
	StartTime    time.Time          `gorm:"not null;index" json:"startTime"`
	EndTime      *time.Time         `json:"endTime"`
	MessageCount int                `gorm:"not null" json:"messageCount"`
	Status       ConversationStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt    time.Time          `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time          `gorm:"not null;index" json:"updatedAt"`
	Messages     []Message          `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName specifies the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// BeforeCreate hook
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	now := Now()
	if c.StartTime.IsZero() {
		c.StartTime = now
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = ConversationActive
	}
	return nil
}

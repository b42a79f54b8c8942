package domain

import (
	"time"

	"gorm.io/gorm"
)

// Sender identifies who produced a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is user or bot.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Message is one turn in a conversation transcript
type Message struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	ConversationID    string    `gorm:"size:36;not null;index:idx_messages_transcript,priority:1" json:"conversationId"`
	ExternalMessageID *string   `gorm:"size:128" json:"externalMessageId"`
	Sender            Sender    `gorm:"size:10;not null" json:"sender"`
	Content           string    `gorm:"type:text;not null" json:"content"`
	Timestamp         time.Time `gorm:"not null;index:idx_messages_transcript,priority:2" json:"timestamp"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate hook
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = Now()
	}
	return nil
}

package domain

import (
	"time"

	"gorm.io/gorm"
)

// Rating bounds and sentiment thresholds shared by validation, filtering and stats.
const (
	MinRating         = 1
	MaxRating         = 10
	PositiveRatingMin = 8
	NegativeRatingMax = 5
)

// FeedbackType is the sentiment class derived from a rating
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNeutral  FeedbackType = "neutral"
	FeedbackNegative FeedbackType = "negative"
)

// ClassifyRating maps a rating onto its sentiment class.
func ClassifyRating(rating int) FeedbackType {
	switch {
	case rating >= PositiveRatingMin:
		return FeedbackPositive
	case rating <= NegativeRatingMax:
		return FeedbackNegative
	default:
		return FeedbackNeutral
	}
}

// Feedback is a satisfaction rating. ConversationID is a weak reference:
// it is resolved once at creation and carries no cascade.
type Feedback struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ConversationID *string   `gorm:"size:36;index" json:"conversationId"`
	MessageID      *string   `gorm:"size:128" json:"messageId"`
	Rating         int       `gorm:"not null;index" json:"rating"`
	FeedbackText   *string   `gorm:"type:text" json:"feedbackText"`
	UserEmail      *string   `gorm:"size:254;index" json:"userEmail"`
	CreatedAt      time.Time `gorm:"not null;index" json:"createdAt"`
}

// TableName specifies the table name for Feedback
func (Feedback) TableName() string {
	return "feedback"
}

// BeforeCreate hook
func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = NewID()
	}
	f.CreatedAt = Now()
	return nil
}

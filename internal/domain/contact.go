package domain

import (
	"time"

	"gorm.io/gorm"
)

// ContactStatus is the admin workflow state of a contact inquiry
type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusInProgress ContactStatus = "in_progress"
	ContactStatusCompleted  ContactStatus = "completed"
	ContactStatusCancelled  ContactStatus = "cancelled"
)

// ContactStatuses lists every valid status in workflow order.
var ContactStatuses = []ContactStatus{
	ContactStatusNew,
	ContactStatusInProgress,
	ContactStatusCompleted,
	ContactStatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s ContactStatus) Valid() bool {
	for _, known := range ContactStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Contact represents a sales-inquiry form submission
type Contact struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	Name        string        `gorm:"size:100;not null" json:"name"`
	Email       string        `gorm:"size:254;not null;index" json:"email"`
	Phone       *string       `gorm:"size:50" json:"phone"`
	Company     *string       `gorm:"size:100" json:"company"`
	ProjectType *string       `gorm:"size:50;index" json:"projectType"`
	Budget      *string       `gorm:"size:50" json:"budget"`
	Timeline    *string       `gorm:"size:50" json:"timeline"`
	Message     string        `gorm:"type:text;not null" json:"message"`
	Status      ContactStatus `gorm:"size:20;not null;index" json:"status"`
	Notes       *string       `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time     `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   time.Time     `gorm:"not null" json:"updatedAt"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// BeforeCreate assigns the id and stamps both timestamps with the same instant
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	now := Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = ContactStatusNew
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sitepulse/internal/domain"
)

// idempotentCreateAttempts bounds the insert/re-fetch loop used when a
// concurrent writer deletes the row we converged on.
const idempotentCreateAttempts = 3

// GormStore implements Store on top of GORM. It works with both the SQLite
// and PostgreSQL dialectors.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already migrated connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Ping checks the underlying connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ============================================================
// Contacts
// ============================================================

// CreateContact inserts a new contact
func (s *GormStore) CreateContact(ctx context.Context, c *domain.Contact) error {
	if err := s.conn(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// GetContact loads a contact by id
func (s *GormStore) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	var c domain.Contact
	if err := s.conn(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// UpdateContact applies patch in a single UPDATE so concurrent admin edits
// never interleave within a row.
func (s *GormStore) UpdateContact(ctx context.Context, id string, patch ContactPatch) (*domain.Contact, error) {
	var updated domain.Contact
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		changes := map[string]any{"updated_at": domain.Now()}
		if patch.Status != nil {
			changes["status"] = *patch.Status
		}
		if patch.Notes != nil {
			changes["notes"] = *patch.Notes
		}

		res := tx.Model(&domain.Contact{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &updated, nil
}

// DeleteContact removes a contact; deleting a missing id is not an error.
func (s *GormStore) DeleteContact(ctx context.Context, id string) (bool, error) {
	res := s.conn(ctx).Where("id = ?", id).Delete(&domain.Contact{})
	if res.Error != nil {
		return false, fmt.Errorf("delete contact: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListContacts returns contacts newest first
func (s *GormStore) ListContacts(ctx context.Context, f ContactFilter, p Page) (*PageResult[domain.Contact], error) {
	q := s.conn(ctx).Model(&domain.Contact{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ProjectType != "" {
		q = q.Where("LOWER(project_type) = ?", strings.ToLower(f.ProjectType))
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.Where(
			"LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(company, '')) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}
	return paginate[domain.Contact](q, p, "created_at DESC, id DESC")
}

// ============================================================
// Conversations
// ============================================================

// CreateConversation stores c unless its session id already exists. The
// insert relies on the unique index (ON CONFLICT DO NOTHING), so concurrent
// callers converge on one row without a check-then-insert race.
func (s *GormStore) CreateConversation(ctx context.Context, c *domain.Conversation) (bool, error) {
	var created bool
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		conv, ok, err := ensureConversation(tx, c)
		if err != nil {
			return err
		}
		*c = *conv
		created = ok
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("create conversation: %w", err)
	}
	return created, nil
}

// ensureConversation inserts seed if its session is unknown and returns the
// stored row locked for the rest of the transaction.
func ensureConversation(tx *gorm.DB, seed *domain.Conversation) (*domain.Conversation, bool, error) {
	for attempt := 0; attempt < idempotentCreateAttempts; attempt++ {
		candidate := *seed
		candidate.ID = ""
		candidate.Messages = nil

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).Create(&candidate)
		if res.Error != nil {
			return nil, false, res.Error
		}

		var stored domain.Conversation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", seed.SessionID).
			First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a race with a delete between insert and re-fetch.
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return &stored, res.RowsAffected > 0, nil
	}
	return nil, false, ErrConflict
}

// GetConversationBySession loads a conversation and optionally its transcript
func (s *GormStore) GetConversationBySession(ctx context.Context, sessionID string, withMessages bool) (*domain.Conversation, error) {
	q := s.conn(ctx)
	if withMessages {
		q = q.Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		})
	}
	var c domain.Conversation
	if err := q.Where("session_id = ?", sessionID).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// EndConversation marks a conversation completed. Ending an already
// completed conversation keeps its original end time.
func (s *GormStore) EndConversation(ctx context.Context, sessionID string, at time.Time) (*domain.Conversation, error) {
	var c domain.Conversation
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.Conversation{}).
			Where("session_id = ? AND status = ?", sessionID, domain.ConversationActive).
			Updates(map[string]any{
				"status":     domain.ConversationCompleted,
				"end_time":   at.UTC(),
				"updated_at": at.UTC(),
			}).Error
		if err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).First(&c).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// DeleteConversation removes a conversation and the messages it owns.
// Feedback and analytics events only reference it weakly and are kept.
func (s *GormStore) DeleteConversation(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete conversation: %w", err)
	}
	return deleted, nil
}

// CompleteIdleConversations closes active conversations with no activity
// since idleSince.
func (s *GormStore) CompleteIdleConversations(ctx context.Context, idleSince, at time.Time) (int64, error) {
	res := s.conn(ctx).Model(&domain.Conversation{}).
		Where("status = ? AND updated_at < ?", domain.ConversationActive, idleSince.UTC()).
		Updates(map[string]any{
			"status":     domain.ConversationCompleted,
			"end_time":   at.UTC(),
			"updated_at": at.UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("complete idle conversations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListConversations returns conversations by start time, newest first
func (s *GormStore) ListConversations(ctx context.Context, f ConversationFilter, p Page) (*PageResult[domain.Conversation], error) {
	q := s.conn(ctx).Model(&domain.Conversation{})
	if f.UserEmail != "" {
		q = q.Where("LOWER(user_email) = ?", strings.ToLower(f.UserEmail))
	}
	if !f.From.IsZero() {
		q = q.Where("start_time >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("start_time < ?", f.To.UTC())
	}
	return paginate[domain.Conversation](q, p, "start_time DESC, id DESC")
}

// ============================================================
// Messages
// ============================================================

// AppendMessage attaches m to the conversation for seed.SessionID, creating
// the conversation first when needed. The conversation row stays locked
// until the count is recomputed, so messageCount always equals the number
// of stored messages.
func (s *GormStore) AppendMessage(ctx context.Context, seed *domain.Conversation, m *domain.Message) (*domain.Conversation, error) {
	var conv *domain.Conversation
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		c, _, err := ensureConversation(tx, seed)
		if err != nil {
			return err
		}

		m.ConversationID = c.ID
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		count := tx.Model(&domain.Message{}).Select("COUNT(*)").Where("conversation_id = ?", c.ID)
		err = tx.Model(&domain.Conversation{}).Where("id = ?", c.ID).Updates(map[string]any{
			"message_count": count,
			"updated_at":    domain.Now(),
		}).Error
		if err != nil {
			return err
		}

		conv = &domain.Conversation{}
		return tx.Where("id = ?", c.ID).First(conv).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return conv, nil
}

// ListMessages returns a transcript in timestamp order
func (s *GormStore) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	err := s.conn(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// ============================================================
// Feedback
// ============================================================

// CreateFeedback inserts a feedback record
func (s *GormStore) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	if err := s.conn(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// DeleteFeedback removes a feedback record
func (s *GormStore) DeleteFeedback(ctx context.Context, id string) (bool, error) {
	res := s.conn(ctx).Where("id = ?", id).Delete(&domain.Feedback{})
	if res.Error != nil {
		return false, fmt.Errorf("delete feedback: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListFeedback returns feedback newest first
func (s *GormStore) ListFeedback(ctx context.Context, f FeedbackFilter, p Page) (*PageResult[domain.Feedback], error) {
	q := s.conn(ctx).Model(&domain.Feedback{})
	if f.Rating != nil {
		q = q.Where("rating = ?", *f.Rating)
	}
	if f.MinRating != nil {
		q = q.Where("rating >= ?", *f.MinRating)
	}
	if f.MaxRating != nil {
		q = q.Where("rating <= ?", *f.MaxRating)
	}
	switch f.Type {
	case domain.FeedbackPositive:
		q = q.Where("rating >= ?", domain.PositiveRatingMin)
	case domain.FeedbackNegative:
		q = q.Where("rating <= ?", domain.NegativeRatingMax)
	case domain.FeedbackNeutral:
		q = q.Where("rating > ? AND rating < ?", domain.NegativeRatingMax, domain.PositiveRatingMin)
	}
	if f.UserEmail != "" {
		email := strings.ToLower(f.UserEmail)
		owners := s.conn(ctx).Model(&domain.Conversation{}).Select("id").Where("LOWER(user_email) = ?", email)
		q = q.Where("LOWER(user_email) = ? OR conversation_id IN (?)", email, owners)
	}
	return paginate[domain.Feedback](q, p, "created_at DESC, id DESC")
}

// ============================================================
// Analytics events
// ============================================================

// CreateEvent appends an analytics event
func (s *GormStore) CreateEvent(ctx context.Context, e *domain.AnalyticsEvent) error {
	if err := s.conn(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create analytics event: %w", err)
	}
	return nil
}

// ListEvents returns events newest first
func (s *GormStore) ListEvents(ctx context.Context, f EventFilter, p Page) (*PageResult[domain.AnalyticsEvent], error) {
	q := s.conn(ctx).Model(&domain.AnalyticsEvent{})
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.UserEmail != "" {
		q = q.Where("LOWER(user_email) = ?", strings.ToLower(f.UserEmail))
	}
	return paginate[domain.AnalyticsEvent](q, p, "created_at DESC, id DESC")
}

// likePattern lowercases s, escapes LIKE wildcards and wraps it in %...%.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/domain"
)

// The methods below are the read primitives the aggregation engine reduces
// into a dashboard snapshot. A zero since means all time.

type labelCount struct {
	Label string
	Count int64
}

func (s *GormStore) countSince(ctx context.Context, model any, column string, since time.Time) (int64, error) {
	var n int64
	q := s.conn(ctx).Model(model)
	if !since.IsZero() {
		q = q.Where(column+" >= ?", since.UTC())
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (s *GormStore) groupCounts(q *gorm.DB, column string) (map[string]int64, error) {
	var rows []labelCount
	err := q.Select("COALESCE(" + column + ", '') AS label, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] += r.Count
	}
	return out, nil
}

// CountContacts counts contacts created at or after since
func (s *GormStore) CountContacts(ctx context.Context, since time.Time) (int64, error) {
	n, err := s.countSince(ctx, &domain.Contact{}, "created_at", since)
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

// CountContactsByStatus groups contacts by status
func (s *GormStore) CountContactsByStatus(ctx context.Context) (map[string]int64, error) {
	out, err := s.groupCounts(s.conn(ctx).Model(&domain.Contact{}), "status")
	if err != nil {
		return nil, fmt.Errorf("count contacts by status: %w", err)
	}
	return out, nil
}

// CountContactsByProjectType groups contacts by project type
func (s *GormStore) CountContactsByProjectType(ctx context.Context) (map[string]int64, error) {
	out, err := s.groupCounts(s.conn(ctx).Model(&domain.Contact{}), "project_type")
	if err != nil {
		return nil, fmt.Errorf("count contacts by project type: %w", err)
	}
	return out, nil
}

// CountContactsByBudget groups contacts by budget bracket
func (s *GormStore) CountContactsByBudget(ctx context.Context) (map[string]int64, error) {
	out, err := s.groupCounts(s.conn(ctx).Model(&domain.Contact{}), "budget")
	if err != nil {
		return nil, fmt.Errorf("count contacts by budget: %w", err)
	}
	return out, nil
}

// ContactEmailSightings returns every contact email with its submission time
func (s *GormStore) ContactEmailSightings(ctx context.Context) ([]domain.EmailSighting, error) {
	rows := make([]domain.EmailSighting, 0)
	err := s.conn(ctx).Model(&domain.Contact{}).
		Select("email, created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("contact email sightings: %w", err)
	}
	return rows, nil
}

// CountConversations counts conversations started at or after since
func (s *GormStore) CountConversations(ctx context.Context, since time.Time) (int64, error) {
	n, err := s.countSince(ctx, &domain.Conversation{}, "start_time", since)
	if err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return n, nil
}

// ConversationMessageTotals returns the sum and max of message counts
func (s *GormStore) ConversationMessageTotals(ctx context.Context) (int64, int64, error) {
	var row struct {
		TotalMessages int64
		MaxMessages   int64
	}
	err := s.conn(ctx).Model(&domain.Conversation{}).
		Select("CAST(COALESCE(SUM(message_count), 0) AS BIGINT) AS total_messages, " +
			"CAST(COALESCE(MAX(message_count), 0) AS BIGINT) AS max_messages").
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("conversation message totals: %w", err)
	}
	return row.TotalMessages, row.MaxMessages, nil
}

// FeedbackRatingCounts groups feedback by rating
func (s *GormStore) FeedbackRatingCounts(ctx context.Context) (map[int]int64, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := s.conn(ctx).Model(&domain.Feedback{}).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("feedback rating counts: %w", err)
	}
	out := make(map[int]int64, len(rows))
	for _, r := range rows {
		out[r.Rating] = r.Count
	}
	return out, nil
}

// CountFeedbackWithComments counts feedback with non-blank text
func (s *GormStore) CountFeedbackWithComments(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&domain.Feedback{}).
		Where("feedback_text IS NOT NULL AND TRIM(feedback_text) <> ''").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count feedback with comments: %w", err)
	}
	return n, nil
}

// CountEventsByType groups analytics events by type
func (s *GormStore) CountEventsByType(ctx context.Context) (map[string]int64, error) {
	out, err := s.groupCounts(s.conn(ctx).Model(&domain.AnalyticsEvent{}), "event_type")
	if err != nil {
		return nil, fmt.Errorf("count events by type: %w", err)
	}
	return out, nil
}

package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	apperrors "sitepulse/pkg/errors"

	"sitepulse/internal/domain"
	"sitepulse/internal/metrics"
	"sitepulse/internal/store"
)

// FeedbackInput is a satisfaction rating. Rating is decoded as a number so
// fractional values reach validation instead of failing to decode.
type FeedbackInput struct {
	SessionID    *string  `json:"sessionId" validate:"omitempty,max=128"`
	Rating       *float64 `json:"rating" validate:"required,min=1,max=10,wholenumber"`
	FeedbackText *string  `json:"feedbackText" validate:"omitempty,max=1000"`
	MessageID    *string  `json:"messageId" validate:"omitempty,max=128"`
	UserEmail    *string  `json:"userEmail" validate:"omitempty,email,max=254"`
}

func (in *FeedbackInput) normalize() {
	in.SessionID = trim(in.SessionID)
	in.FeedbackText = trim(in.FeedbackText)
	in.MessageID = trim(in.MessageID)
	in.UserEmail = lowerTrim(in.UserEmail)
}

// SubmitFeedback stores a rating. The session is resolved to a conversation
// once, now; an unknown session leaves conversationId null and is never
// linked later.
func (s *InteractionService) SubmitFeedback(ctx context.Context, in FeedbackInput) (*Envelope, error) {
	in.normalize()
	rating := "none"
	if in.Rating != nil {
		rating = strconv.FormatFloat(*in.Rating, 'f', -1, 64)
	}
	log.Printf("[FEEDBACK] Submit request: rating=%s", rating)

	if err := s.check(&in); err != nil {
		log.Printf("[FEEDBACK] Submit failed: %v", err)
		return nil, err
	}

	fb := &domain.Feedback{
		MessageID:    in.MessageID,
		Rating:       int(*in.Rating),
		FeedbackText: in.FeedbackText,
		UserEmail:    in.UserEmail,
	}

	if in.SessionID != nil {
		var conv *domain.Conversation
		err := s.run(ctx, "conversation.get", func(ctx context.Context) (err error) {
			conv, err = s.store.GetConversationBySession(ctx, *in.SessionID, false)
			return err
		})
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return nil, translate("FEEDBACK", "conversation.get", err, "")
		default:
			fb.ConversationID = &conv.ID
		}
	}

	err := s.run(ctx, "feedback.create", func(ctx context.Context) error {
		return s.store.CreateFeedback(ctx, fb)
	})
	if err != nil {
		return nil, translate("FEEDBACK", "feedback.create", err, "")
	}

	sentiment := domain.ClassifyRating(fb.Rating)
	metrics.RecordFeedback(string(sentiment))
	log.Printf("[FEEDBACK] Submit successful: id=%s, rating=%d, linked=%t", fb.ID, fb.Rating, fb.ConversationID != nil)
	return ok(fb).with("feedbackType", sentiment), nil
}

// DeleteFeedback removes a feedback record
func (s *InteractionService) DeleteFeedback(ctx context.Context, id string) (*Envelope, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidField("id", "is required")
	}

	var deleted bool
	err := s.run(ctx, "feedback.delete", func(ctx context.Context) (err error) {
		deleted, err = s.store.DeleteFeedback(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate("FEEDBACK", "feedback.delete", err, "")
	}
	return ok(map[string]bool{"deleted": deleted}), nil
}

// ListFeedback filters by rating, a rating range, the derived feedbackType
// and userEmail.
func (s *InteractionService) ListFeedback(ctx context.Context, p Params) (*Envelope, error) {
	var pe paramErrors
	page := pe.page(p)
	f := store.FeedbackFilter{
		Rating:    pe.integer(p, "rating"),
		MinRating: pe.integer(p, "minRating"),
		MaxRating: pe.integer(p, "maxRating"),
		UserEmail: p.get("userEmail"),
	}
	if raw := strings.ToLower(p.get("feedbackType")); raw != "" {
		f.Type = domain.FeedbackType(raw)
		switch f.Type {
		case domain.FeedbackPositive, domain.FeedbackNeutral, domain.FeedbackNegative:
		default:
			pe.add("feedbackType", "must be one of: positive, neutral, negative")
		}
	}
	if err := pe.err(); err != nil {
		return nil, err
	}

	var res *store.PageResult[domain.Feedback]
	err := s.run(ctx, "feedback.list", func(ctx context.Context) (err error) {
		res, err = s.store.ListFeedback(ctx, f, page)
		return err
	})
	if err != nil {
		return nil, translate("FEEDBACK", "feedback.list", err, "")
	}
	return pageExtras(ok(res.Data), res.Count, res.Page, res.Limit, res.TotalPages), nil
}

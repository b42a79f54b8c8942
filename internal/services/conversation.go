package services

import (
	"context"
	"log"
	"strings"
	"time"

	apperrors "sitepulse/pkg/errors"

	"sitepulse/internal/domain"
	"sitepulse/internal/metrics"
	"sitepulse/internal/store"
)

// ConversationInput starts a chat session
type ConversationInput struct {
	SessionID string  `json:"sessionId" validate:"required,max=128"`
	UserEmail *string `json:"userEmail" validate:"omitempty,email,max=254"`
	UserName  *string `json:"userName" validate:"omitempty,max=100"`
}

func (in *ConversationInput) normalize() {
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.UserEmail = lowerTrim(in.UserEmail)
	in.UserName = trim(in.UserName)
}

func (in *ConversationInput) seed() *domain.Conversation {
	return &domain.Conversation{
		SessionID: in.SessionID,
		UserEmail: in.UserEmail,
		UserName:  in.UserName,
	}
}

// MessageInput is one chat turn. The user fields only apply when the
// conversation does not exist yet and is created by this message.
type MessageInput struct {
	SessionID         string  `json:"sessionId" validate:"required,max=128"`
	Sender            string  `json:"sender" validate:"required,oneof=user bot"`
	Content           string  `json:"content" validate:"required,max=5000"`
	ExternalMessageID *string `json:"externalMessageId" validate:"omitempty,max=128"`
	UserEmail         *string `json:"userEmail" validate:"omitempty,email,max=254"`
	UserName          *string `json:"userName" validate:"omitempty,max=100"`
}

func (in *MessageInput) normalize() {
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.Sender = strings.ToLower(strings.TrimSpace(in.Sender))
	in.Content = strings.TrimSpace(in.Content)
	in.ExternalMessageID = trim(in.ExternalMessageID)
	in.UserEmail = lowerTrim(in.UserEmail)
	in.UserName = trim(in.UserName)
}

// StartOrGetConversation creates the conversation for a session or returns
// the existing one unchanged. The existing extra tells the two apart.
func (s *InteractionService) StartOrGetConversation(ctx context.Context, in ConversationInput) (*Envelope, error) {
	in.normalize()
	log.Printf("[CHAT] Start request: session=%s", in.SessionID)

	if err := s.check(&in); err != nil {
		log.Printf("[CHAT] Start failed: %v", err)
		return nil, err
	}

	conv := in.seed()
	var created bool
	err := s.run(ctx, "conversation.create", func(ctx context.Context) (err error) {
		created, err = s.store.CreateConversation(ctx, conv)
		return err
	})
	if err != nil {
		return nil, translate("CHAT", "conversation.create", err, "")
	}

	metrics.RecordConversationStart(created)
	if created {
		log.Printf("[CHAT] Conversation started: id=%s, session=%s", conv.ID, conv.SessionID)
		return ok(conv).with("existing", false).withMessage("conversation started"), nil
	}
	log.Printf("[CHAT] Conversation exists: id=%s, session=%s", conv.ID, conv.SessionID)
	return ok(conv).with("existing", true).withMessage("conversation already exists"), nil
}

// PostMessage appends a message, creating the conversation on first use.
func (s *InteractionService) PostMessage(ctx context.Context, in MessageInput) (*Envelope, error) {
	in.normalize()
	log.Printf("[CHAT] Message request: session=%s, sender=%s", in.SessionID, in.Sender)

	if err := s.check(&in); err != nil {
		log.Printf("[CHAT] Message failed: %v", err)
		return nil, err
	}

	seed := &domain.Conversation{
		SessionID: in.SessionID,
		UserEmail: in.UserEmail,
		UserName:  in.UserName,
	}
	msg := &domain.Message{
		ExternalMessageID: in.ExternalMessageID,
		Sender:            domain.Sender(in.Sender),
		Content:           in.Content,
	}

	var conv *domain.Conversation
	err := s.run(ctx, "message.create", func(ctx context.Context) (err error) {
		conv, err = s.store.AppendMessage(ctx, seed, msg)
		return err
	})
	if err != nil {
		return nil, translate("CHAT", "message.create", err, "")
	}

	metrics.RecordChatMessage(string(msg.Sender))
	log.Printf("[CHAT] Message stored: id=%s, conversation=%s, count=%d", msg.ID, conv.ID, conv.MessageCount)
	return ok(msg).
		with("conversationId", conv.ID).
		with("messageCount", conv.MessageCount), nil
}

// GetConversation loads a conversation with its transcript
func (s *InteractionService) GetConversation(ctx context.Context, sessionID string) (*Envelope, error) {
	conv, err := s.conversation(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	return ok(conv), nil
}

// ListMessages returns a conversation transcript oldest first
func (s *InteractionService) ListMessages(ctx context.Context, sessionID string) (*Envelope, error) {
	conv, err := s.conversation(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	err = s.run(ctx, "message.list", func(ctx context.Context) (err error) {
		messages, err = s.store.ListMessages(ctx, conv.ID)
		return err
	})
	if err != nil {
		return nil, translate("CHAT", "message.list", err, "")
	}
	return ok(messages).
		with("conversationId", conv.ID).
		with("count", len(messages)), nil
}

// EndConversation completes a conversation. Ending it twice keeps the
// first end time.
func (s *InteractionService) EndConversation(ctx context.Context, sessionID string) (*Envelope, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.InvalidField("sessionId", "is required")
	}

	var conv *domain.Conversation
	err := s.run(ctx, "conversation.end", func(ctx context.Context) (err error) {
		conv, err = s.store.EndConversation(ctx, sessionID, domain.Now())
		return err
	})
	if err != nil {
		return nil, translate("CHAT", "conversation.end", err, "conversation not found")
	}

	log.Printf("[CHAT] Conversation ended: id=%s, session=%s", conv.ID, conv.SessionID)
	return ok(conv), nil
}

// DeleteConversation removes a conversation and its messages. Feedback and
// analytics events that reference it are left in place.
func (s *InteractionService) DeleteConversation(ctx context.Context, sessionID string) (*Envelope, error) {
	conv, err := s.conversation(ctx, sessionID, false)
	if apperrors.IsNotFound(err) {
		return ok(map[string]bool{"deleted": false}), nil
	}
	if err != nil {
		return nil, err
	}

	var deleted bool
	err = s.run(ctx, "conversation.delete", func(ctx context.Context) (err error) {
		deleted, err = s.store.DeleteConversation(ctx, conv.ID)
		return err
	})
	if err != nil {
		return nil, translate("CHAT", "conversation.delete", err, "")
	}

	log.Printf("[CHAT] Conversation deleted: id=%s, session=%s", conv.ID, conv.SessionID)
	return ok(map[string]bool{"deleted": deleted}), nil
}

// ListConversations filters by userEmail and an inclusive dateFrom/dateTo
// range of calendar days.
func (s *InteractionService) ListConversations(ctx context.Context, p Params) (*Envelope, error) {
	var pe paramErrors
	page := pe.page(p)
	f := store.ConversationFilter{
		UserEmail: p.get("userEmail"),
		From:      pe.date(p, "dateFrom", s.loc),
	}
	if to := pe.date(p, "dateTo", s.loc); !to.IsZero() {
		f.To = to.AddDate(0, 0, 1)
	}
	if err := pe.err(); err != nil {
		return nil, err
	}

	var res *store.PageResult[domain.Conversation]
	err := s.run(ctx, "conversation.list", func(ctx context.Context) (err error) {
		res, err = s.store.ListConversations(ctx, f, page)
		return err
	})
	if err != nil {
		return nil, translate("CHAT", "conversation.list", err, "")
	}
	return pageExtras(ok(res.Data), res.Count, res.Page, res.Limit, res.TotalPages), nil
}

// CloseIdleConversations completes active conversations that have seen no
// activity for idleFor. It returns how many were closed.
func (s *InteractionService) CloseIdleConversations(ctx context.Context, idleFor time.Duration) (int64, error) {
	now := domain.Now()
	var n int64
	err := s.run(ctx, "conversation.sweep", func(ctx context.Context) (err error) {
		n, err = s.store.CompleteIdleConversations(ctx, now.Add(-idleFor), now)
		return err
	})
	if err != nil {
		return 0, translate("CHAT", "conversation.sweep", err, "")
	}
	if n > 0 {
		log.Printf("[CHAT] Closed %d idle conversations", n)
	}
	return n, nil
}

func (s *InteractionService) conversation(ctx context.Context, sessionID string, withMessages bool) (*domain.Conversation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.InvalidField("sessionId", "is required")
	}

	var conv *domain.Conversation
	err := s.run(ctx, "conversation.get", func(ctx context.Context) (err error) {
		conv, err = s.store.GetConversationBySession(ctx, sessionID, withMessages)
		return err
	})
	if err != nil {
		return nil, translate("CHAT", "conversation.get", err, "conversation not found")
	}
	return conv, nil
}

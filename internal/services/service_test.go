package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "sitepulse/pkg/errors"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/domain"
	"sitepulse/internal/stats"
	"sitepulse/internal/store"
)

type fakeNotifier struct {
	sent chan *domain.Contact
}

func (f *fakeNotifier) NotifyNewContact(c *domain.Contact) error {
	f.sent <- c
	return nil
}

type harness struct {
	svc      *InteractionService
	store    *store.GormStore
	conn     *gorm.DB
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := database.Open(&config.DatabaseConfig{
		URL: "sqlite:///" + filepath.Join(t.TempDir(), "gateway.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(conn) })

	st := store.NewGormStore(conn)
	notifier := &fakeNotifier{sent: make(chan *domain.Contact, 8)}
	svc, err := NewInteractionService(st, stats.NewEngine(st, stats.WithLocation(time.UTC)), Options{
		Timeout:  2 * time.Second,
		Location: time.UTC,
		Notifier: notifier,
	})
	require.NoError(t, err)
	return &harness{svc: svc, store: st, conn: conn, notifier: notifier}
}

func ptr[T any](v T) *T { return &v }

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	names := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func validContact() ContactInput {
	return ContactInput{
		Name:    "  Ada Lovelace ",
		Email:   "Ada@Example.COM",
		Company: ptr("Analytical Engines"),
		Budget:  ptr("10k-25k"),
		Message: "We need a website.",
	}
}

// ============================================================
// Contacts
// ============================================================

func TestSubmitContact(t *testing.T) {
	h := newHarness(t)

	env, err := h.svc.SubmitContact(context.Background(), validContact())
	require.NoError(t, err)
	assert.True(t, env.Success)

	c := env.Data.(*domain.Contact)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, domain.ContactStatusNew, c.Status)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, "ada@example.com", c.Email)

	select {
	case notified := <-h.notifier.sent:
		assert.Equal(t, c.ID, notified.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestSubmitContactValidation(t *testing.T) {
	h := newHarness(t)

	in := validContact()
	in.Name = "   "
	in.Email = "not-an-email"
	in.Message = strings.Repeat("x", 2001)
	in.Timeline = ptr(strings.Repeat("y", 51))

	_, err := h.svc.SubmitContact(context.Background(), in)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.ElementsMatch(t, []string{"name", "email", "message", "timeline"}, fieldNames(t, err))

	res, err := h.store.ListContacts(context.Background(), store.ContactFilter{}, store.Page{})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
}

func TestUpdateContactStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	env, err := h.svc.SubmitContact(ctx, validContact())
	require.NoError(t, err)
	id := env.Data.(*domain.Contact).ID

	env, err = h.svc.UpdateContactStatus(ctx, id, ContactStatusInput{Status: "in_progress", Notes: ptr("called back")})
	require.NoError(t, err)
	c := env.Data.(*domain.Contact)
	assert.Equal(t, domain.ContactStatusInProgress, c.Status)
	assert.Equal(t, "called back", *c.Notes)

	env, err = h.svc.UpdateContactStatus(ctx, id, ContactStatusInput{Status: "completed"})
	require.NoError(t, err)
	c = env.Data.(*domain.Contact)
	assert.Equal(t, domain.ContactStatusCompleted, c.Status)
	require.NotNil(t, c.Notes)
	assert.Equal(t, "called back", *c.Notes)
	assert.False(t, c.UpdatedAt.Before(c.CreatedAt))
}

func TestUpdateContactStatusRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	env, err := h.svc.SubmitContact(ctx, validContact())
	require.NoError(t, err)
	id := env.Data.(*domain.Contact).ID

	_, err = h.svc.UpdateContactStatus(ctx, id, ContactStatusInput{Status: "bogus", Notes: ptr("should not land")})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, []string{"status"}, fieldNames(t, err))

	stored, err := h.store.GetContact(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusNew, stored.Status)
	assert.Nil(t, stored.Notes)
}

func TestUpdateContactStatusNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.UpdateContactStatus(context.Background(), "missing", ContactStatusInput{Status: "completed"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetAndDeleteContact(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	env, err := h.svc.SubmitContact(ctx, validContact())
	require.NoError(t, err)
	id := env.Data.(*domain.Contact).ID

	env, err = h.svc.GetContact(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, env.Data.(*domain.Contact).ID)

	env, err = h.svc.DeleteContact(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"deleted": true}, env.Data)

	env, err = h.svc.DeleteContact(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"deleted": false}, env.Data)

	_, err = h.svc.GetContact(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListContactsPageBeyondRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		in := validContact()
		in.Email = fmt.Sprintf("visitor%d@example.com", i)
		_, err := h.svc.SubmitContact(ctx, in)
		require.NoError(t, err)
	}

	env, err := h.svc.ListContacts(ctx, Params{"page": "2", "limit": "10"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Contact{}, env.Data)
	assert.EqualValues(t, 5, env.Extras["count"])
	assert.Equal(t, 1, env.Extras["totalPages"])
	assert.Equal(t, 2, env.Extras["page"])
	assert.Equal(t, 10, env.Extras["limit"])
}

func TestListParams(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.ListContacts(ctx, Params{"page": "two", "status": "archived"})
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"page", "status"}, fieldNames(t, err))

	env, err := h.svc.ListContacts(ctx, Params{"page": "-3", "limit": "500"})
	require.NoError(t, err)
	assert.Equal(t, 1, env.Extras["page"])
	assert.Equal(t, store.MaxPageLimit, env.Extras["limit"])

	env, err = h.svc.ListContacts(ctx, Params{"limit": "0"})
	require.NoError(t, err)
	assert.Equal(t, 1, env.Extras["limit"])

	_, err = h.svc.ListFeedback(ctx, Params{"feedbackType": "angry", "minRating": "x"})
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"feedbackType", "minRating"}, fieldNames(t, err))

	_, err = h.svc.ListConversations(ctx, Params{"dateFrom": "05/01/2026"})
	require.Error(t, err)
	assert.Equal(t, []string{"dateFrom"}, fieldNames(t, err))
}

func TestListContactsSourceAlias(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := validContact()
	in.ProjectType = ptr("E-Commerce")
	_, err := h.svc.SubmitContact(ctx, in)
	require.NoError(t, err)
	_, err = h.svc.SubmitContact(ctx, validContact())
	require.NoError(t, err)

	env, err := h.svc.ListContacts(ctx, Params{"source": "e-commerce"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.Extras["count"])
}

// ============================================================
// Conversations and messages
// ============================================================

func TestStartOrGetConversationIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.StartOrGetConversation(ctx, ConversationInput{SessionID: "abc", UserEmail: ptr("Pat@Example.com")})
	require.NoError(t, err)
	assert.Equal(t, false, first.Extras["existing"])

	second, err := h.svc.StartOrGetConversation(ctx, ConversationInput{SessionID: "abc", UserName: ptr("Other")})
	require.NoError(t, err)
	assert.Equal(t, true, second.Extras["existing"])

	c1 := first.Data.(*domain.Conversation)
	c2 := second.Data.(*domain.Conversation)
	assert.Equal(t, c1.ID, c2.ID)
	assert.Nil(t, c2.UserName)
	assert.Equal(t, "pat@example.com", *c2.UserEmail)

	env, err := h.svc.ListConversations(ctx, Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.Extras["count"])
}

func TestStartOrGetConversationConcurrent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 2)
	errs := make([]error, 2)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env, err := h.svc.StartOrGetConversation(ctx, ConversationInput{SessionID: "race"})
			errs[i] = err
			if err == nil {
				ids[i] = env.Data.(*domain.Conversation).ID
			}
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, ids[0], ids[1])

	var n int64
	require.NoError(t, h.conn.Model(&domain.Conversation{}).Where("session_id = ?", "race").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestPostMessageCreatesConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	env, err := h.svc.PostMessage(ctx, MessageInput{SessionID: "xyz", Sender: "user", Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, env.Extras["messageCount"])

	var convs, msgs int64
	require.NoError(t, h.conn.Model(&domain.Conversation{}).Count(&convs).Error)
	require.NoError(t, h.conn.Model(&domain.Message{}).Count(&msgs).Error)
	assert.EqualValues(t, 1, convs)
	assert.EqualValues(t, 1, msgs)

	conv, err := h.svc.GetConversation(ctx, "xyz")
	require.NoError(t, err)
	c := conv.Data.(*domain.Conversation)
	assert.Equal(t, 1, c.MessageCount)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, "hi", c.Messages[0].Content)
}

func TestPostMessageValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.PostMessage(context.Background(), MessageInput{SessionID: "", Sender: "robot", Content: " "})
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"sessionId", "sender", "content"}, fieldNames(t, err))
}

func TestListMessagesInOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, m := range []MessageInput{
		{SessionID: "t", Sender: "user", Content: "first"},
		{SessionID: "t", Sender: "bot", Content: "second"},
		{SessionID: "t", Sender: "user", Content: "third"},
	} {
		_, err := h.svc.PostMessage(ctx, m)
		require.NoError(t, err)
	}

	env, err := h.svc.ListMessages(ctx, "t")
	require.NoError(t, err)
	msgs := env.Data.([]domain.Message)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})

	_, err = h.svc.ListMessages(ctx, "nobody")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEndAndDeleteConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.PostMessage(ctx, MessageInput{SessionID: "s1", Sender: "user", Content: "hello"})
	require.NoError(t, err)
	_, err = h.svc.SubmitFeedback(ctx, FeedbackInput{SessionID: ptr("s1"), Rating: ptr(8.0)})
	require.NoError(t, err)

	env, err := h.svc.EndConversation(ctx, "s1")
	require.NoError(t, err)
	ended := env.Data.(*domain.Conversation)
	assert.Equal(t, domain.ConversationCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)

	env, err = h.svc.EndConversation(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ended.EndTime.Equal(*env.Data.(*domain.Conversation).EndTime))

	env, err = h.svc.DeleteConversation(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"deleted": true}, env.Data)

	var msgs, fb int64
	require.NoError(t, h.conn.Model(&domain.Message{}).Count(&msgs).Error)
	require.NoError(t, h.conn.Model(&domain.Feedback{}).Count(&fb).Error)
	assert.Zero(t, msgs)
	assert.EqualValues(t, 1, fb)

	env, err = h.svc.DeleteConversation(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"deleted": false}, env.Data)

	_, err = h.svc.EndConversation(ctx, "s1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListConversationsDateRangeIsInclusive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i, ts := range []time.Time{
		time.Date(2026, 4, 30, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 2, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
	} {
		_, err := h.store.CreateConversation(ctx, &domain.Conversation{SessionID: fmt.Sprintf("d%d", i), StartTime: ts})
		require.NoError(t, err)
	}

	env, err := h.svc.ListConversations(ctx, Params{"dateFrom": "2026-05-01", "dateTo": "2026-05-02"})
	require.NoError(t, err)
	convs := env.Data.([]domain.Conversation)
	require.Len(t, convs, 2)
	assert.Equal(t, "d2", convs[0].SessionID)
	assert.Equal(t, "d1", convs[1].SessionID)
}

func TestCloseIdleConversations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.StartOrGetConversation(ctx, ConversationInput{SessionID: "idle"})
	require.NoError(t, err)

	n, err := h.svc.CloseIdleConversations(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = h.svc.CloseIdleConversations(ctx, -time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

// ============================================================
// Feedback
// ============================================================

func TestSubmitFeedbackRatingBounds(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		rating float64
		ok     bool
	}{
		{0, false},
		{11, false},
		{9.5, false},
		{-1, false},
		{1, true},
		{10, true},
		{7, true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.rating), func(t *testing.T) {
			_, err := h.svc.SubmitFeedback(context.Background(), FeedbackInput{Rating: ptr(tc.rating)})
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, []string{"rating"}, fieldNames(t, err))
		})
	}

	_, err := h.svc.SubmitFeedback(context.Background(), FeedbackInput{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestSubmitFeedbackLogsRequestWithoutRating(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	_, err := h.svc.SubmitFeedback(context.Background(), FeedbackInput{})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "[FEEDBACK] Submit request: rating=none")
	assert.Contains(t, out, "[FEEDBACK] Submit failed")
}

func TestFeedbackBeforeConversationStaysUnlinked(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	env, err := h.svc.SubmitFeedback(ctx, FeedbackInput{SessionID: ptr("s1"), Rating: ptr(9.0), FeedbackText: ptr("great")})
	require.NoError(t, err)
	fb := env.Data.(*domain.Feedback)
	assert.Nil(t, fb.ConversationID)
	assert.Equal(t, domain.FeedbackPositive, env.Extras["feedbackType"])

	_, err = h.svc.StartOrGetConversation(ctx, ConversationInput{SessionID: "s1"})
	require.NoError(t, err)

	list, err := h.svc.ListFeedback(ctx, Params{})
	require.NoError(t, err)
	stored := list.Data.([]domain.Feedback)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].ConversationID)
}

func TestFeedbackLinksExistingConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	conv, err := h.svc.StartOrGetConversation(ctx, ConversationInput{SessionID: "s2", UserEmail: ptr("owner@example.com")})
	require.NoError(t, err)

	env, err := h.svc.SubmitFeedback(ctx, FeedbackInput{SessionID: ptr("s2"), Rating: ptr(4.0)})
	require.NoError(t, err)
	fb := env.Data.(*domain.Feedback)
	require.NotNil(t, fb.ConversationID)
	assert.Equal(t, conv.Data.(*domain.Conversation).ID, *fb.ConversationID)

	list, err := h.svc.ListFeedback(ctx, Params{"userEmail": "OWNER@example.com", "feedbackType": "negative"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Extras["count"])
}

// ============================================================
// Analytics events
// ============================================================

func TestTrackEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	env, err := h.svc.TrackEvent(ctx, EventInput{
		EventType: "page_view",
		EventData: json.RawMessage(`{"page": "/pricing"}`),
		SessionID: ptr("s1"),
		UserEmail: ptr("not an email"),
	})
	require.NoError(t, err)
	ev := env.Data.(*domain.AnalyticsEvent)
	assert.Equal(t, SchemaValid, env.Extras["schema"])
	assert.Equal(t, []string{"userEmail"}, env.Extras["dropped"])
	assert.Nil(t, ev.UserEmail)
	assert.Equal(t, "s1", *ev.SessionID)

	env, err = h.svc.TrackEvent(ctx, EventInput{EventType: "email_signup", EventData: json.RawMessage(`{"email": "nope"}`)})
	require.NoError(t, err)
	assert.Equal(t, SchemaInvalid, env.Extras["schema"])

	env, err = h.svc.TrackEvent(ctx, EventInput{EventType: "scroll_depth", EventData: json.RawMessage(`42`)})
	require.NoError(t, err)
	assert.Equal(t, SchemaNone, env.Extras["schema"])
	assert.JSONEq(t, `{"value": 42}`, string(env.Data.(*domain.AnalyticsEvent).EventData))

	list, err := h.svc.ListEvents(ctx, Params{"sessionId": "s1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Extras["count"])
}

func TestTrackEventRequiresType(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.TrackEvent(context.Background(), EventInput{EventType: "  "})
	require.Error(t, err)
	assert.Equal(t, []string{"eventType"}, fieldNames(t, err))
}

func TestEventPayload(t *testing.T) {
	assert.Equal(t, "{}", string(eventPayload(nil)))
	assert.Equal(t, "{}", string(eventPayload(json.RawMessage("null"))))
	assert.Equal(t, `{"a":1}`, string(eventPayload(json.RawMessage(`{"a":1}`))))
	assert.JSONEq(t, `{"value":[1,2]}`, string(eventPayload(json.RawMessage(`[1,2]`))))
	assert.JSONEq(t, `{"value":"{broken"}`, string(eventPayload(json.RawMessage(`{broken`))))
}

// ============================================================
// Dashboard
// ============================================================

func TestDashboardOnEmptyStore(t *testing.T) {
	h := newHarness(t)
	env, err := h.svc.GetDashboard(context.Background())
	require.NoError(t, err)

	snap := env.Data.(*stats.Snapshot)
	assert.Zero(t, snap.Feedback.AverageRating)
	assert.Zero(t, snap.Insights.ConversionRate)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"average_rating":0`)
	assert.Contains(t, string(raw), `"conversion_rate":0`)
}

func TestDashboardReflectsWrites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.SubmitContact(ctx, validContact())
	require.NoError(t, err)
	for _, sid := range []string{"a", "b"} {
		_, err = h.svc.PostMessage(ctx, MessageInput{SessionID: sid, Sender: "user", Content: "hi"})
		require.NoError(t, err)
	}
	_, err = h.svc.SubmitFeedback(ctx, FeedbackInput{Rating: ptr(9.0)})
	require.NoError(t, err)

	env, err := h.svc.GetDashboard(ctx)
	require.NoError(t, err)
	snap := env.Data.(*stats.Snapshot)
	assert.EqualValues(t, 1, snap.Contacts.Total)
	assert.EqualValues(t, 1, snap.Contacts.Today)
	assert.EqualValues(t, 2, snap.Conversations.Total)
	assert.Equal(t, 1.0, snap.Conversations.AverageMessages)
	assert.Equal(t, 9.0, snap.Feedback.AverageRating)
	assert.Equal(t, 50.0, snap.Insights.ConversionRate)
	assert.Equal(t, 100.0, snap.Insights.PositivePercentage)
	assert.EqualValues(t, 1, snap.Users.NewToday)
}

// ============================================================
// Errors and envelopes
// ============================================================

func TestStorageErrorsAreGeneric(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, database.Close(h.conn))

	_, err := h.svc.SubmitContact(context.Background(), validContact())
	require.Error(t, err)
	assert.True(t, apperrors.IsStorage(err))

	body, err2 := json.Marshal(Failure(err))
	require.NoError(t, err2)
	assert.NotContains(t, strings.ToLower(string(body)), "sql")
	assert.Contains(t, string(body), `"error":"STORAGE_ERROR"`)

	_, err = h.svc.GetDashboard(context.Background())
	assert.True(t, apperrors.IsStorage(err))
}

// blockingStore never answers CreateContact until its context is done.
type blockingStore struct {
	store.Store
}

func (blockingStore) CreateContact(ctx context.Context, _ *domain.Contact) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStorageTimeoutIsStorageError(t *testing.T) {
	h := newHarness(t)
	st := blockingStore{Store: h.store}
	svc, err := NewInteractionService(st, stats.NewEngine(h.store), Options{
		Timeout:  50 * time.Millisecond,
		Location: time.UTC,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.SubmitContact(context.Background(), validContact())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, apperrors.IsStorage(err))
	assert.Less(t, elapsed, 2*time.Second)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestEnvelopeMarshalJSON(t *testing.T) {
	raw, err := json.Marshal(ok([]int{1}).with("count", 1).withMessage("done"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[1],"count":1,"message":"done"}`, string(raw))

	raw, err = json.Marshal(Failure(apperrors.InvalidField("rating", "must be at most 10")))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": "VALIDATION_ERROR",
		"message": "invalid input: rating",
		"fields": [{"field": "rating", "message": "must be at most 10"}]
	}`, string(raw))

	raw, err = json.Marshal(Failure(errors.New("boom")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"INTERNAL_ERROR","message":"internal server error"}`, string(raw))
}

package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/domain"
)

type fakeReader struct {
	contacts      []domain.Contact
	conversations []domain.Conversation
	feedback      []domain.Feedback
	events        []domain.AnalyticsEvent
	err           error
}

func (f *fakeReader) CountContacts(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	for _, c := range f.contacts {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, f.err
}

func (f *fakeReader) group(get func(domain.Contact) *string) map[string]int64 {
	out := map[string]int64{}
	for _, c := range f.contacts {
		label := ""
		if v := get(c); v != nil {
			label = *v
		}
		out[label]++
	}
	return out
}

func (f *fakeReader) CountContactsByStatus(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, c := range f.contacts {
		out[string(c.Status)]++
	}
	return out, nil
}

func (f *fakeReader) CountContactsByProjectType(ctx context.Context) (map[string]int64, error) {
	return f.group(func(c domain.Contact) *string { return c.ProjectType }), nil
}

func (f *fakeReader) CountContactsByBudget(ctx context.Context) (map[string]int64, error) {
	return f.group(func(c domain.Contact) *string { return c.Budget }), nil
}

func (f *fakeReader) ContactEmailSightings(ctx context.Context) ([]domain.EmailSighting, error) {
	out := make([]domain.EmailSighting, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, domain.EmailSighting{Email: c.Email, CreatedAt: c.CreatedAt})
	}
	return out, nil
}

func (f *fakeReader) CountConversations(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	for _, c := range f.conversations {
		if !c.StartTime.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeReader) ConversationMessageTotals(ctx context.Context) (int64, int64, error) {
	var total, max int64
	for _, c := range f.conversations {
		n := int64(c.MessageCount)
		total += n
		if n > max {
			max = n
		}
	}
	return total, max, nil
}

func (f *fakeReader) FeedbackRatingCounts(ctx context.Context) (map[int]int64, error) {
	out := map[int]int64{}
	for _, fb := range f.feedback {
		out[fb.Rating]++
	}
	return out, nil
}

func (f *fakeReader) CountFeedbackWithComments(ctx context.Context) (int64, error) {
	var n int64
	for _, fb := range f.feedback {
		if fb.FeedbackText != nil && *fb.FeedbackText != "" {
			n++
		}
	}
	return n, nil
}

func (f *fakeReader) CountEventsByType(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, e := range f.events {
		out[e.EventType]++
	}
	return out, nil
}

var (
	berlin = time.FixedZone("CEST", 2*60*60)
	// 2026-05-10 09:30 local time.
	fixedNow = time.Date(2026, 5, 10, 7, 30, 0, 0, time.UTC)
)

func str(s string) *string { return &s }

func newTestEngine(r Reader, opts ...Option) *Engine {
	opts = append([]Option{WithLocation(berlin), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewEngine(r, opts...)
}

func TestSnapshotEmptyStoreIsZero(t *testing.T) {
	snap, err := newTestEngine(&fakeReader{}).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.Feedback.AverageRating)
	assert.Zero(t, snap.Insights.ConversionRate)
	assert.Zero(t, snap.Insights.PositivePercentage)
	assert.Zero(t, snap.Conversations.AverageMessages)
	assert.Len(t, snap.Feedback.Distribution, 10)
	assert.Equal(t, map[string]int64{"new": 0, "in_progress": 0, "completed": 0, "cancelled": 0}, snap.Contacts.ByStatus)
	assert.Empty(t, snap.Events)
	assert.Equal(t, fixedNow, snap.GeneratedAt)
}

func TestSnapshotCounts(t *testing.T) {
	startOfToday := time.Date(2026, 5, 9, 22, 0, 0, 0, time.UTC) // local midnight
	yesterday := startOfToday.Add(-time.Minute)
	today := startOfToday.Add(time.Hour)

	r := &fakeReader{
		contacts: []domain.Contact{
			{Email: "ann@example.com", Status: domain.ContactStatusNew, Budget: str("10k-25k"), ProjectType: str("web"), CreatedAt: yesterday},
			{Email: "ANN@example.com", Status: domain.ContactStatusCompleted, Budget: str("under-5k"), ProjectType: str("web"), CreatedAt: today},
			{Email: "bob@example.com", Status: domain.ContactStatusNew, Budget: str("custom"), CreatedAt: today},
		},
		conversations: []domain.Conversation{
			{MessageCount: 3, StartTime: yesterday},
			{MessageCount: 4, StartTime: today},
			{MessageCount: 0, StartTime: today},
			{MessageCount: 1, StartTime: today},
		},
		feedback: []domain.Feedback{
			{Rating: 9, FeedbackText: str("great")},
			{Rating: 8},
			{Rating: 6},
			{Rating: 2, FeedbackText: str("meh")},
			{Rating: 10},
			{Rating: 5},
		},
		events: []domain.AnalyticsEvent{
			{EventType: "page_view"}, {EventType: "page_view"}, {EventType: "page_view"}, {EventType: "download"},
		},
	}

	snap, err := newTestEngine(r, WithBudgetBrackets([]string{"under-5k", "5k-10k", "10k-25k"})).Snapshot(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 3, snap.Contacts.Total)
	assert.EqualValues(t, 2, snap.Contacts.Today)
	assert.EqualValues(t, 2, snap.Contacts.ByStatus["new"])
	assert.EqualValues(t, 1, snap.Contacts.ByStatus["completed"])
	assert.EqualValues(t, 0, snap.Contacts.ByStatus["cancelled"])

	assert.EqualValues(t, 4, snap.Conversations.Total)
	assert.EqualValues(t, 3, snap.Conversations.Today)
	assert.Equal(t, 2.0, snap.Conversations.AverageMessages)
	assert.EqualValues(t, 4, snap.Conversations.MaxMessages)

	assert.EqualValues(t, 6, snap.Feedback.Total)
	assert.Equal(t, 6.67, snap.Feedback.AverageRating)
	assert.EqualValues(t, 3, snap.Feedback.Positive)
	assert.EqualValues(t, 2, snap.Feedback.Negative)
	assert.EqualValues(t, 2, snap.Feedback.WithComments)
	assert.Equal(t, RatingCount{Rating: 9, Count: 1}, snap.Feedback.Distribution[8])

	assert.EqualValues(t, 2, snap.Users.Total)
	assert.EqualValues(t, 1, snap.Users.NewToday)

	assert.Equal(t, 75.0, snap.Insights.ConversionRate)
	assert.Equal(t, 50.0, snap.Insights.PositivePercentage)

	labels := make([]string, 0, len(snap.Contacts.ByBudget))
	for _, b := range snap.Contacts.ByBudget {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"under-5k", "5k-10k", "10k-25k", "custom"}, labels)
	assert.Equal(t, 33.33, snap.Contacts.ByBudget[0].Percentage)
	assert.Zero(t, snap.Contacts.ByBudget[1].Count)

	require.Len(t, snap.Contacts.ByProjectType, 2)
	assert.Equal(t, Bucket{Label: "web", Count: 2, Percentage: 66.67}, snap.Contacts.ByProjectType[0])
	assert.Equal(t, UnspecifiedLabel, snap.Contacts.ByProjectType[1].Label)

	require.Len(t, snap.Events, 2)
	assert.Equal(t, Bucket{Label: "page_view", Count: 3, Percentage: 75}, snap.Events[0])
}

func TestSnapshotPropagatesReaderError(t *testing.T) {
	boom := errors.New("database is locked")
	_, err := newTestEngine(&fakeReader{err: boom}).Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(fixedNow, berlin)
	assert.Equal(t, time.Date(2026, 5, 9, 22, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestRatioRounds(t *testing.T) {
	assert.Equal(t, 33.33, ratio(100, 3, 2))
	assert.Equal(t, 67.0, ratio(200, 3, 0))
	assert.Zero(t, ratio(5, 0, 2))
}

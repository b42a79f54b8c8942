// Package stats implements the aggregation engine behind the admin
// dashboard. Every snapshot is computed from the live stores; nothing is
// cached between calls.
package stats

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sitepulse/internal/domain"
)

// UnspecifiedLabel names the bucket for records with no value in a
// grouped column.
const UnspecifiedLabel = "unspecified"

// Reader is the read surface the engine needs from the entity store.
type Reader interface {
	CountContacts(ctx context.Context, since time.Time) (int64, error)
	CountContactsByStatus(ctx context.Context) (map[string]int64, error)
	CountContactsByProjectType(ctx context.Context) (map[string]int64, error)
	CountContactsByBudget(ctx context.Context) (map[string]int64, error)
	ContactEmailSightings(ctx context.Context) ([]domain.EmailSighting, error)
	CountConversations(ctx context.Context, since time.Time) (int64, error)
	ConversationMessageTotals(ctx context.Context) (total int64, max int64, err error)
	FeedbackRatingCounts(ctx context.Context) (map[int]int64, error)
	CountFeedbackWithComments(ctx context.Context) (int64, error)
	CountEventsByType(ctx context.Context) (map[string]int64, error)
}

// Bucket is one group of a breakdown with its share of the whole.
type Bucket struct {
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RatingCount is one bar of the rating histogram.
type RatingCount struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

type ContactStats struct {
	Total         int64            `json:"total"`
	Today         int64            `json:"today"`
	ByStatus      map[string]int64 `json:"by_status"`
	ByProjectType []Bucket         `json:"by_project_type"`
	ByBudget      []Bucket         `json:"by_budget"`
}

type ConversationStats struct {
	Total           int64   `json:"total"`
	Today           int64   `json:"today"`
	AverageMessages float64 `json:"average_messages"`
	MaxMessages     int64   `json:"max_messages"`
}

type FeedbackStats struct {
	Total         int64         `json:"total"`
	AverageRating float64       `json:"average_rating"`
	Positive      int64         `json:"positive"`
	Negative      int64         `json:"negative"`
	WithComments  int64         `json:"with_comments"`
	Distribution  []RatingCount `json:"distribution"`
}

type UserStats struct {
	Total    int64 `json:"total"`
	NewToday int64 `json:"new_today"`
}

type Insights struct {
	ConversionRate     float64 `json:"conversion_rate"`
	PositivePercentage float64 `json:"positive_percentage"`
}

// Snapshot is the full dashboard payload.
type Snapshot struct {
	Contacts      ContactStats      `json:"contacts"`
	Conversations ConversationStats `json:"conversations"`
	Feedback      FeedbackStats     `json:"feedback"`
	Users         UserStats         `json:"users"`
	Insights      Insights          `json:"insights"`
	Events        []Bucket          `json:"events"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// Engine computes snapshots from a Reader.
type Engine struct {
	reader   Reader
	loc      *time.Location
	now      func() time.Time
	brackets []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the calendar used to decide what "today" means.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithBudgetBrackets sets the display order of budget buckets.
func WithBudgetBrackets(brackets []string) Option {
	return func(e *Engine) {
		e.brackets = append([]string(nil), brackets...)
	}
}

// NewEngine creates an engine reading from r.
func NewEngine(r Reader, opts ...Option) *Engine {
	e := &Engine{
		reader: r,
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartOfDay returns the first instant of t's calendar day in loc, in UTC.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}

// Snapshot reads every store concurrently and reduces the results. Reads
// are not mutually consistent; a write racing the snapshot may be counted
// by one figure and not another.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	now := e.now()
	today := StartOfDay(now, e.loc)

	var (
		contactsTotal, contactsToday int64
		byStatus, byType, byBudget   map[string]int64
		sightings                    []domain.EmailSighting
		convTotal, convToday         int64
		msgTotal, msgMax             int64
		ratings                      map[int]int64
		withComments                 int64
		events                       map[string]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { contactsTotal, err = e.reader.CountContacts(gctx, time.Time{}); return })
	g.Go(func() (err error) { contactsToday, err = e.reader.CountContacts(gctx, today); return })
	g.Go(func() (err error) { byStatus, err = e.reader.CountContactsByStatus(gctx); return })
	g.Go(func() (err error) { byType, err = e.reader.CountContactsByProjectType(gctx); return })
	g.Go(func() (err error) { byBudget, err = e.reader.CountContactsByBudget(gctx); return })
	g.Go(func() (err error) { sightings, err = e.reader.ContactEmailSightings(gctx); return })
	g.Go(func() (err error) { convTotal, err = e.reader.CountConversations(gctx, time.Time{}); return })
	g.Go(func() (err error) { convToday, err = e.reader.CountConversations(gctx, today); return })
	g.Go(func() (err error) { msgTotal, msgMax, err = e.reader.ConversationMessageTotals(gctx); return })
	g.Go(func() (err error) { ratings, err = e.reader.FeedbackRatingCounts(gctx); return })
	g.Go(func() (err error) { withComments, err = e.reader.CountFeedbackWithComments(gctx); return })
	g.Go(func() (err error) { events, err = e.reader.CountEventsByType(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Contacts: ContactStats{
			Total:         contactsTotal,
			Today:         contactsToday,
			ByStatus:      statusCounts(byStatus),
			ByProjectType: buckets(byType, contactsTotal, nil),
			ByBudget:      buckets(byBudget, contactsTotal, e.brackets),
		},
		Conversations: ConversationStats{
			Total:           convTotal,
			Today:           convToday,
			AverageMessages: ratio(float64(msgTotal), float64(convTotal), 2),
			MaxMessages:     msgMax,
		},
		Feedback:    feedbackStats(ratings, withComments),
		Users:       userStats(sightings, today),
		Events:      buckets(events, sum(events), nil),
		GeneratedAt: now.UTC(),
	}
	snap.Insights = Insights{
		ConversionRate:     ratio(float64(contactsTotal)*100, float64(convTotal), 2),
		PositivePercentage: ratio(float64(snap.Feedback.Positive)*100, float64(snap.Feedback.Total), 0),
	}
	return snap, nil
}

// ratio returns n/d rounded to places decimals, or 0 when d is 0.
func ratio(n, d float64, places int) float64 {
	if d == 0 {
		return 0
	}
	return round(n/d, places)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func sum(m map[string]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}

func statusCounts(raw map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(domain.ContactStatuses))
	for _, s := range domain.ContactStatuses {
		out[string(s)] = 0
	}
	for k, v := range raw {
		out[k] += v
	}
	return out
}

// buckets turns grouped counts into a breakdown. Labels listed in order come
// first in that order, even with a zero count; the rest follow by count
// descending. The unspecified bucket is always last.
func buckets(raw map[string]int64, total int64, order []string) []Bucket {
	counts := make(map[string]int64, len(raw))
	for k, v := range raw {
		label := strings.TrimSpace(k)
		if label == "" {
			label = UnspecifiedLabel
		}
		counts[label] += v
	}

	out := make([]Bucket, 0, len(counts)+len(order))
	seen := make(map[string]bool, len(order))
	for _, label := range order {
		if seen[label] || label == UnspecifiedLabel {
			continue
		}
		seen[label] = true
		out = append(out, Bucket{Label: label, Count: counts[label]})
	}

	var rest []Bucket
	for label, n := range counts {
		if seen[label] || label == UnspecifiedLabel {
			continue
		}
		rest = append(rest, Bucket{Label: label, Count: n})
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Count != rest[j].Count {
			return rest[i].Count > rest[j].Count
		}
		return rest[i].Label < rest[j].Label
	})
	out = append(out, rest...)
	if n, ok := counts[UnspecifiedLabel]; ok {
		out = append(out, Bucket{Label: UnspecifiedLabel, Count: n})
	}

	for i := range out {
		out[i].Percentage = ratio(float64(out[i].Count)*100, float64(total), 2)
	}
	return out
}

func feedbackStats(ratings map[int]int64, withComments int64) FeedbackStats {
	fs := FeedbackStats{
		WithComments: withComments,
		Distribution: make([]RatingCount, 0, domain.MaxRating-domain.MinRating+1),
	}
	var weighted int64
	for r := domain.MinRating; r <= domain.MaxRating; r++ {
		n := ratings[r]
		fs.Distribution = append(fs.Distribution, RatingCount{Rating: r, Count: n})
		fs.Total += n
		weighted += int64(r) * n
		switch domain.ClassifyRating(r) {
		case domain.FeedbackPositive:
			fs.Positive += n
		case domain.FeedbackNegative:
			fs.Negative += n
		}
	}
	fs.AverageRating = ratio(float64(weighted), float64(fs.Total), 2)
	return fs
}

// userStats counts distinct contact emails, case-insensitively, and how
// many of them were first seen at or after today.
func userStats(sightings []domain.EmailSighting, today time.Time) UserStats {
	firstSeen := make(map[string]time.Time, len(sightings))
	for _, s := range sightings {
		email := strings.ToLower(strings.TrimSpace(s.Email))
		if email == "" {
			continue
		}
		if prev, ok := firstSeen[email]; !ok || s.CreatedAt.Before(prev) {
			firstSeen[email] = s.CreatedAt
		}
	}
	us := UserStats{Total: int64(len(firstSeen))}
	for _, t := range firstSeen {
		if !t.Before(today) {
			us.NewToday++
		}
	}
	return us
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"sitepulse/internal/domain"
	"sitepulse/internal/metrics"
	"sitepulse/internal/stats"
	"sitepulse/internal/store"
)

// DefaultTimeout bounds a single storage call when Options.Timeout is unset.
const DefaultTimeout = 5 * time.Second

// ContactNotifier is told about every stored contact submission.
type ContactNotifier interface {
	NotifyNewContact(c *domain.Contact) error
}

// Options configures an InteractionService.
type Options struct {
	// Timeout bounds every storage call.
	Timeout time.Duration
	// Location is the calendar used for date filters.
	Location *time.Location
	// Notifier receives new contacts; nil disables notification.
	Notifier ContactNotifier
}

// InteractionService is the gateway in front of the entity store and the
// aggregation engine. It validates input, dispatches to the store and
// shapes every result into an Envelope.
type InteractionService struct {
	store    store.Store
	stats    *stats.Engine
	notifier ContactNotifier
	schemas  *EventSchemas
	validate *validator.Validate
	timeout  time.Duration
	loc      *time.Location
}

// NewInteractionService creates the gateway
func NewInteractionService(st store.Store, engine *stats.Engine, opts Options) (*InteractionService, error) {
	schemas, err := NewEventSchemas()
	if err != nil {
		return nil, fmt.Errorf("failed to compile event schemas: %w", err)
	}
	s := &InteractionService{
		store:    st,
		stats:    engine,
		notifier: opts.Notifier,
		schemas:  schemas,
		validate: newValidator(),
		timeout:  opts.Timeout,
		loc:      opts.Location,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s, nil
}

// run executes one storage call under the configured timeout and records
// its duration. A not-found result is not counted as a failed query.
func (s *InteractionService) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	recorded := err
	if errors.Is(recorded, store.ErrNotFound) {
		recorded = nil
	}
	metrics.RecordDBQuery(op, time.Since(start), recorded)
	return err
}

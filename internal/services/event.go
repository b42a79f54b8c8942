package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"strings"

	"gorm.io/datatypes"

	"sitepulse/internal/domain"
	"sitepulse/internal/metrics"
	"sitepulse/internal/store"
)

// EventInput is a tracked interaction. Only eventType is required; bad
// optional metadata is dropped instead of failing the call.
type EventInput struct {
	EventType string          `json:"eventType" validate:"required,max=100"`
	EventData json.RawMessage `json:"eventData" validate:"-"`
	SessionID *string         `json:"sessionId" validate:"-"`
	UserEmail *string         `json:"userEmail" validate:"-"`
}

// TrackEvent appends an analytics event. The payload is checked against the
// schema of its type, when one exists, but is stored either way.
func (s *InteractionService) TrackEvent(ctx context.Context, in EventInput) (*Envelope, error) {
	in.EventType = strings.TrimSpace(in.EventType)
	if err := s.check(&in); err != nil {
		log.Printf("[ANALYTICS] Track failed: %v", err)
		return nil, err
	}

	var dropped []string
	ev := &domain.AnalyticsEvent{
		EventType: in.EventType,
		EventData: eventPayload(in.EventData),
	}
	if sid := trim(in.SessionID); sid != nil {
		if len(*sid) <= 128 {
			ev.SessionID = sid
		} else {
			dropped = append(dropped, "sessionId")
		}
	}
	if email := lowerTrim(in.UserEmail); email != nil {
		if len(*email) <= 254 && s.validEmail(*email) {
			ev.UserEmail = email
		} else {
			dropped = append(dropped, "userEmail")
		}
	}

	result, schemaErr := s.schemas.Check(ev.EventType, ev.EventData)
	if result == SchemaInvalid {
		log.Printf("[ANALYTICS] Event %s does not match its schema: %v", ev.EventType, schemaErr)
	}

	err := s.run(ctx, "event.create", func(ctx context.Context) error {
		return s.store.CreateEvent(ctx, ev)
	})
	if err != nil {
		return nil, translate("ANALYTICS", "event.create", err, "")
	}

	metrics.RecordAnalyticsEvent(s.metricEventType(ev.EventType), string(result))
	env := ok(ev).with("schema", result)
	if len(dropped) > 0 {
		log.Printf("[ANALYTICS] Event %s stored without invalid metadata: %s", ev.ID, strings.Join(dropped, ", "))
		env.with("dropped", dropped)
	}
	return env, nil
}

// ListEvents filters by eventType, sessionId and userEmail
func (s *InteractionService) ListEvents(ctx context.Context, p Params) (*Envelope, error) {
	var pe paramErrors
	page := pe.page(p)
	f := store.EventFilter{
		EventType: p.get("eventType"),
		SessionID: p.get("sessionId"),
		UserEmail: p.get("userEmail"),
	}
	if err := pe.err(); err != nil {
		return nil, err
	}

	var res *store.PageResult[domain.AnalyticsEvent]
	err := s.run(ctx, "event.list", func(ctx context.Context) (err error) {
		res, err = s.store.ListEvents(ctx, f, page)
		return err
	})
	if err != nil {
		return nil, translate("ANALYTICS", "event.list", err, "")
	}
	return pageExtras(ok(res.Data), res.Count, res.Page, res.Limit, res.TotalPages), nil
}

// metricEventType keeps label cardinality bounded: free-form types are
// counted as other.
func (s *InteractionService) metricEventType(eventType string) string {
	if s.schemas.Known(eventType) {
		return eventType
	}
	return "other"
}

// eventPayload stores objects as-is. Missing payloads become {} and any
// other JSON value is wrapped as {"value": ...}.
func eventPayload(raw json.RawMessage) datatypes.JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return datatypes.JSON("{}")
	}
	if !json.Valid(trimmed) {
		wrapped, _ := json.Marshal(map[string]string{"value": string(trimmed)})
		return datatypes.JSON(wrapped)
	}
	if trimmed[0] == '{' {
		return datatypes.JSON(trimmed)
	}
	wrapped, _ := json.Marshal(map[string]json.RawMessage{"value": trimmed})
	return datatypes.JSON(wrapped)
}

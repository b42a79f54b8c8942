// Package server adapts the interaction gateway to HTTP using the goa
// runtime muxer and codecs.
package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goahttp "goa.design/goa/v3/http"
	httpmdlwr "goa.design/goa/v3/http/middleware"

	apperrors "sitepulse/pkg/errors"

	"sitepulse/internal/config"
	"sitepulse/internal/metrics"
	"sitepulse/internal/services"
)

// Server routes HTTP requests to the gateway
type Server struct {
	cfg    *config.Config
	svc    *services.InteractionService
	health *services.HealthService
	mux    goahttp.Muxer
}

// New creates the server and mounts every route
func New(cfg *config.Config, svc *services.InteractionService, health *services.HealthService) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		health: health,
		mux:    goahttp.NewMuxer(),
	}
	s.mount()
	return s
}

// Handler returns the root handler with the full middleware chain:
// security headers -> CORS -> request id -> logging -> Prometheus -> mux.
func (s *Server) Handler() http.Handler {
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			promhttp.Handler().ServeHTTP(w, r)
			return
		}
		s.mux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = metrics.PrometheusMiddleware(h)
	h = httpmdlwr.PopulateRequestContext()(h)
	h = requestLogging(h)
	h = httpmdlwr.RequestID(httpmdlwr.UseXRequestIDHeaderOption(true))(h)
	h = setupCORS(h, s.cfg)
	h = setupSecurityHeaders(h, s.cfg)
	return h
}

type operation func(r *http.Request) (*services.Envelope, error)

func (s *Server) mount() {
	s.mux.Handle(http.MethodGet, "/health", s.handleHealth)

	s.route(http.MethodPost, "/api/v1/contacts", http.StatusCreated, func(r *http.Request) (*services.Envelope, error) {
		var in services.ContactInput
		if err := decode(r, &in); err != nil {
			return nil, err
		}
		return s.svc.SubmitContact(r.Context(), in)
	})
	s.route(http.MethodGet, "/api/v1/contacts", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.ListContacts(r.Context(), queryParams(r))
	})
	s.route(http.MethodGet, "/api/v1/contacts/{id}", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.GetContact(r.Context(), s.mux.Vars(r)["id"])
	})
	s.route(http.MethodPatch, "/api/v1/contacts/{id}", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		var in services.ContactStatusInput
		if err := decode(r, &in); err != nil {
			return nil, err
		}
		return s.svc.UpdateContactStatus(r.Context(), s.mux.Vars(r)["id"], in)
	})
	s.route(http.MethodDelete, "/api/v1/contacts/{id}", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.DeleteContact(r.Context(), s.mux.Vars(r)["id"])
	})

	s.route(http.MethodPost, "/api/v1/conversations", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		var in services.ConversationInput
		if err := decode(r, &in); err != nil {
			return nil, err
		}
		return s.svc.StartOrGetConversation(r.Context(), in)
	})
	s.route(http.MethodGet, "/api/v1/conversations", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.ListConversations(r.Context(), queryParams(r))
	})
	s.route(http.MethodGet, "/api/v1/conversations/{sessionId}", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.GetConversation(r.Context(), s.mux.Vars(r)["sessionId"])
	})
	s.route(http.MethodDelete, "/api/v1/conversations/{sessionId}", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.DeleteConversation(r.Context(), s.mux.Vars(r)["sessionId"])
	})
	s.route(http.MethodPost, "/api/v1/conversations/{sessionId}/end", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.EndConversation(r.Context(), s.mux.Vars(r)["sessionId"])
	})
	s.route(http.MethodGet, "/api/v1/conversations/{sessionId}/messages", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.ListMessages(r.Context(), s.mux.Vars(r)["sessionId"])
	})
	s.route(http.MethodPost, "/api/v1/messages", http.StatusCreated, func(r *http.Request) (*services.Envelope, error) {
		var in services.MessageInput
		if err := decode(r, &in); err != nil {
			return nil, err
		}
		return s.svc.PostMessage(r.Context(), in)
	})

	s.route(http.MethodPost, "/api/v1/feedback", http.StatusCreated, func(r *http.Request) (*services.Envelope, error) {
		var in services.FeedbackInput
		if err := decode(r, &in); err != nil {
			return nil, err
		}
		return s.svc.SubmitFeedback(r.Context(), in)
	})
	s.route(http.MethodGet, "/api/v1/feedback", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.ListFeedback(r.Context(), queryParams(r))
	})
	s.route(http.MethodDelete, "/api/v1/feedback/{id}", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.DeleteFeedback(r.Context(), s.mux.Vars(r)["id"])
	})

	s.route(http.MethodPost, "/api/v1/analytics/events", http.StatusCreated, func(r *http.Request) (*services.Envelope, error) {
		var in services.EventInput
		if err := decode(r, &in); err != nil {
			return nil, err
		}
		return s.svc.TrackEvent(r.Context(), in)
	})
	s.route(http.MethodGet, "/api/v1/analytics/events", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.ListEvents(r.Context(), queryParams(r))
	})

	s.route(http.MethodGet, "/api/v1/dashboard/stats", http.StatusOK, func(r *http.Request) (*services.Envelope, error) {
		return s.svc.GetDashboard(r.Context())
	})
}

func (s *Server) route(method, pattern string, status int, op operation) {
	s.mux.Handle(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		env, err := op(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		write(r.Context(), w, status, env)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	res := s.health.Check(r.Context())
	status := http.StatusOK
	if res.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	write(r.Context(), w, status, res)
}

// decode reads a JSON body into v. Malformed bodies are validation errors.
func decode(r *http.Request, v any) error {
	err := goahttp.RequestDecoder(r).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return apperrors.InvalidField("body", "is required")
	default:
		return apperrors.InvalidField("body", "must be a valid JSON object with correctly typed fields")
	}
}

// queryParams keeps the first value of every query parameter.
func queryParams(r *http.Request) services.Params {
	out := make(services.Params)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// StatusFor maps an error code onto an HTTP status.
func StatusFor(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func write(ctx context.Context, w http.ResponseWriter, status int, body any) {
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if err := enc.Encode(body); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] Unhandled error: %v", err)
	}
	write(ctx, w, status, services.Failure(err))
}

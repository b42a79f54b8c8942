package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"goa.design/goa/v3/middleware"

	"sitepulse/internal/config"
)

// setupSecurityHeaders adds security headers to responses
func setupSecurityHeaders(handler http.Handler, cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		h.Set("Cache-Control", "no-store")
		if !cfg.App.Debug && r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		handler.ServeHTTP(w, r)
	})
}

// setupCORS allows configured origins. A wildcard or debug mode allows any
// origin; otherwise requests from unknown origins are refused.
func setupCORS(handler http.Handler, cfg *config.Config) http.Handler {
	allowAll := cfg.App.Debug
	allowed := make(map[string]bool, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	methods := strings.Join(cfg.CORS.AllowedMethods, ", ")
	headers := strings.Join(cfg.CORS.AllowedHeaders, ", ")
	maxAge := fmt.Sprintf("%d", cfg.CORS.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !allowAll && !allowed[origin] {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		h := w.Header()
		if origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Set("Access-Control-Expose-Headers", "Content-Type, X-Request-ID")
		h.Set("Access-Control-Max-Age", maxAge)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogging logs every request except health and metrics probes, and
// echoes the request id back to the client.
func requestLogging(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID, _ := r.Context().Value(middleware.RequestIDKey).(string)
		if reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			handler.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		log.Printf("[REQUEST] %s %s id=%s from %s", r.Method, r.URL.Path, reqID, r.RemoteAddr)

		handler.ServeHTTP(wrapped, r)

		statusText := "OK"
		if wrapped.statusCode >= 400 {
			statusText = "ERROR"
		}
		log.Printf("[RESPONSE] %s %s id=%s -> %d %s (%v)", r.Method, r.URL.Path, reqID, wrapped.statusCode, statusText, time.Since(start))
	})
}

package services

import (
	"strconv"
	"strings"
	"time"

	apperrors "sitepulse/pkg/errors"

	"sitepulse/internal/store"
)

// DateLayout is the format of dateFrom/dateTo filters.
const DateLayout = "2006-01-02"

// Params are raw list parameters as received from the transport.
type Params map[string]string

// get returns the trimmed value of the first key that is set.
func (p Params) get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(p[k]); v != "" {
			return v
		}
	}
	return ""
}

// paramErrors collects field errors while parsing a Params set.
type paramErrors []apperrors.FieldError

func (pe *paramErrors) add(field, msg string) {
	*pe = append(*pe, apperrors.FieldError{Field: field, Message: msg})
}

func (pe paramErrors) err() error {
	if len(pe) == 0 {
		return nil
	}
	return apperrors.Validation(pe...)
}

func (pe *paramErrors) integer(p Params, key string) *int {
	raw := p.get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		pe.add(key, "must be an integer")
		return nil
	}
	return &n
}

// page reads page and limit. Values out of range are clamped rather than
// rejected; only non-numeric input is an error.
func (pe *paramErrors) page(p Params) store.Page {
	var page store.Page
	if n := pe.integer(p, "page"); n != nil {
		page.Number = *n
	}
	if n := pe.integer(p, "limit"); n != nil {
		page.Limit = *n
		if page.Limit < 1 {
			page.Limit = 1
		}
	}
	return page.Normalize()
}

// date parses key as a calendar day in loc and returns its first instant.
func (pe *paramErrors) date(p Params, key string, loc *time.Location) time.Time {
	raw := p.get(key)
	if raw == "" {
		return time.Time{}
	}
	d, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		pe.add(key, "must be a date in YYYY-MM-DD format")
		return time.Time{}
	}
	return d
}

func pageExtras(env *Envelope, count int64, page, limit, totalPages int) *Envelope {
	return env.
		with("count", count).
		with("page", page).
		with("limit", limit).
		with("totalPages", totalPages)
}

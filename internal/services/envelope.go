package services

import (
	"encoding/json"
	"errors"

	apperrors "sitepulse/pkg/errors"
)

// Envelope is the uniform result of every gateway operation. Extras are
// flattened into the top level next to success and data.
type Envelope struct {
	Success bool
	Data    any
	Message string
	Extras  map[string]any
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extras)+3)
	for k, v := range e.Extras {
		out[k] = v
	}
	out["success"] = e.Success
	if e.Data != nil {
		out["data"] = e.Data
	}
	if e.Message != "" {
		out["message"] = e.Message
	}
	return json.Marshal(out)
}

func ok(data any) *Envelope {
	return &Envelope{Success: true, Data: data}
}

func (e *Envelope) with(key string, value any) *Envelope {
	if e.Extras == nil {
		e.Extras = make(map[string]any)
	}
	e.Extras[key] = value
	return e
}

func (e *Envelope) withMessage(msg string) *Envelope {
	e.Message = msg
	return e
}

// Failure renders err as a failure envelope. Errors outside the taxonomy
// are reported as INTERNAL_ERROR with a generic message.
func Failure(err error) Envelope {
	env := Envelope{Extras: map[string]any{}}
	code := apperrors.CodeOf(err)
	env.Extras["error"] = code

	var appErr *apperrors.AppError
	if code != apperrors.ErrCodeInternal && errors.As(err, &appErr) {
		env.Message = appErr.Message
		if len(appErr.Fields) > 0 {
			env.Extras["fields"] = appErr.Fields
		}
		return env
	}
	env.Message = "internal server error"
	return env
}

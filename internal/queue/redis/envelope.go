package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"hiretrack/internal/domain/notification"
)

// envelope is the stored form of one queued request. The payload is written
// once at enqueue time and copied verbatim on every retry.
type envelope struct {
	ID        string               `json:"id"`
	Attempts  int                  `json:"attempts"`
	Payload   notification.Request `json:"payload"`
	LastError string               `json:"last_error,omitempty"`
	FailedAt  *time.Time           `json:"failed_at,omitempty"`
}

func encodeEnvelope(e envelope) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("hiretrack/redis: encode envelope: %w", err)
	}
	return string(raw), nil
}

func decodeEnvelope(raw string) (envelope, error) {
	var e envelope
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return envelope{}, fmt.Errorf("hiretrack/redis: decode envelope: %w", err)
	}
	return e, nil
}

func (e envelope) delivery() notification.Delivery {
	return notification.Delivery{ID: e.ID, Attempts: e.Attempts, Request: e.Payload}
}

// retried returns the envelope that replaces e after a failed attempt.
func (e envelope) retried(cause error, now time.Time) envelope {
	next := e
	next.Attempts++
	next.FailedAt = &now
	if cause != nil {
		next.LastError = cause.Error()
	}
	return next
}

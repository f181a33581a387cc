package notify

import (
	"context"

	"github.com/rs/zerolog"

	"hiretrack/internal/domain/notification"
)

// LogTransport writes messages to the log instead of sending them. Used when
// no SMTP host is configured.
type LogTransport struct {
	logger zerolog.Logger
}

func NewLogTransport(logger zerolog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(_ context.Context, msg notification.Message) error {
	t.logger.Info().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.Body)).
		Msg("notification (log transport)")
	return nil
}

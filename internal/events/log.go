package events

import (
	"context"
	"log/slog"

	"github.com/crmd/crmd/internal/observability/logger"
)

// LogPublisher writes events to the structured log.
// It is used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a log publisher. A nil logger uses slog.Default.
func NewLogPublisher(l *slog.Logger) *LogPublisher {
	if l == nil {
		l = slog.Default()
	}
	return &LogPublisher{logger: l}
}

// Publish logs the event at debug level
func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.DebugContext(ctx, "customer event",
		logger.Component("events"),
		logger.EventType(e.Type),
		logger.CustomerID(e.CustomerID),
		slog.String("event_id", e.ID),
	)
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error { return nil }

// Package notify sends per-recipient staffing notifications for a service
// and records which recipients were reached.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Gateway delivers one text message to one address.
type Gateway interface {
	Send(ctx context.Context, address, text string) error
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, address, text string) error

// Send calls f.
func (f GatewayFunc) Send(ctx context.Context, address, text string) error {
	return f(ctx, address, text)
}

// Marker persists the notified flag for a batch of schedules in one write.
// Schedules that no longer exist are returned as missing rather than failing
// the write for the rest.
type Marker interface {
	MarkNotified(ctx context.Context, scheduleIDs []string, at time.Time) (missing []string, err error)
}

// LogGateway writes every message to a structured logger instead of sending
// it. It never fails.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway constructs a LogGateway. A nil logger uses slog.Default.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogGateway{logger: logger.With("component", "log_gateway")}
}

// Send logs the message.
func (g *LogGateway) Send(ctx context.Context, address, text string) error {
	g.logger.InfoContext(ctx, "notification", "address", address, "text", text)
	return nil
}

package notification

import (
	"context"
	"log/slog"
)

// LogChannel writes messages to the log instead of delivering them
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates a LogChannel
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Available always succeeds
func (c *LogChannel) Available(ctx context.Context) error {
	return nil
}

// Send logs the message
func (c *LogChannel) Send(ctx context.Context, phone, message, channelID string) error {
	c.logger.InfoContext(ctx, "message", "channel", channelID, "phone", phone, "body", message)
	return nil
}

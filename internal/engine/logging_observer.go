package engine

import (
	"context"
	"log/slog"
)

// LoggingObserver is a simple observer that logs all events using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent implements the Observer interface.
// Every phase is logged at debug, the logger already carries run_id.
func (lo *LoggingObserver) OnEvent(event Event) {
	lo.logger.Log(context.Background(), slog.LevelDebug, "join_lifecycle",
		"event", event.Type,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)
}

package engine

import "time"

// EventType represents different lifecycle phases of a join run
type EventType string

const (
	EventResolveStart EventType = "resolve_start"
	EventResolveEnd   EventType = "resolve_end"
	EventBuildStart   EventType = "build_start"
	EventBuildEnd     EventType = "build_end"
	EventProbeStart   EventType = "probe_start"
	EventProbeEnd     EventType = "probe_end"
	EventCommit       EventType = "commit"
	EventAbort        EventType = "abort"
)

// Event represents a lifecycle event of a join run
type Event struct {
	Type      EventType   // Type of event
	RunID     string      // Run ID for tracing
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Phase-specific data (e.g., mode, row counts, stats, error)
}

// Observer interface for event subscribers
// Observers receive events at major execution phases
type Observer interface {
	OnEvent(event Event)
}

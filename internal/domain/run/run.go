package run

import (
	"time"

	"github.com/google/uuid"
)

// Run identifies one invocation of a command.
// All state of a join lives and dies with its Run; nothing is carried across invocations.
type Run struct {
	ID        string    // unique run identifier used to correlate logs and events
	Command   string    // subcommand name, e.g. "join"
	StartTime time.Time // when the run began
}

// New creates a run with a fresh identifier
func New(command string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Command:   command,
		StartTime: time.Now(),
	}
}

// Elapsed returns the time since the run started
func (r *Run) Elapsed() time.Duration {
	return time.Since(r.StartTime)
}

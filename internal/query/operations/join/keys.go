package join

import (
	"github.com/leengari/tabular/internal/domain/data"
)

// KeyRecorder captures distinct join keys in first-seen order.
// Keys are deduplicated on their normalized form; the stored row keeps the first occurrence's original values.
// Not safe for concurrent use; the probe collector is its only writer.
type KeyRecorder struct {
	seen map[string]struct{}
	rows []data.Row
}

func NewKeyRecorder() *KeyRecorder {
	return &KeyRecorder{
		seen: make(map[string]struct{}),
	}
}

// Record adds a key unless an equal normalized key was already recorded
func (r *KeyRecorder) Record(key string, original data.Row) {
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	r.rows = append(r.rows, original)
}

// Rows returns the recorded key tuples in insertion order
func (r *KeyRecorder) Rows() []data.Row {
	return r.rows
}

func (r *KeyRecorder) Len() int {
	return len(r.rows)
}

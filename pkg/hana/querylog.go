package hana

import (
	"sync"
	"time"
)

// DefaultQueryLogSize bounds the per-connection query log when the
// configuration does not say otherwise.
const DefaultQueryLogSize = 1000

// QueryLogEntry is one executed statement as recorded by a debug cursor.
type QueryLogEntry struct {
	SQL      string
	Params   []interface{}
	Duration time.Duration
	Err      error
	At       time.Time
}

// QueryLog is a bounded, append-only record of statements executed through
// debug cursors. When full, the oldest entries are discarded.
type QueryLog struct {
	mu      sync.Mutex
	entries []QueryLogEntry
	limit   int
}

// NewQueryLog creates a log bounded to limit entries; a non-positive limit
// means DefaultQueryLogSize.
func NewQueryLog(limit int) *QueryLog {
	if limit <= 0 {
		limit = DefaultQueryLogSize
	}
	return &QueryLog{limit: limit}
}

// Append records one executed statement, evicting the oldest entry when the
// log is full.
func (q *QueryLog) Append(entry QueryLogEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.limit {
		copy(q.entries, q.entries[1:])
		q.entries = q.entries[:len(q.entries)-1]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a snapshot of the recorded statements, oldest first.
func (q *QueryLog) Entries() []QueryLogEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueryLogEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of recorded statements.
func (q *QueryLog) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear discards all recorded statements.
func (q *QueryLog) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = q.entries[:0]
}

// Package provenance records what a run did: one ordered, append-only log of
// executed, skipped and failed operation invocations. The record shape is the
// durable artifact downstream reproducibility tooling inspects, so it stays
// flat and string-rendered.
package provenance

import (
	"time"

	"github.com/google/uuid"
)

// Status classifies a provenance record.
type Status string

const (
	StatusExecuted Status = "executed"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Record describes one operation invocation (or its skip/failure).
type Record struct {
	Operation  string
	Parameters map[string]string
	Timestamp  time.Time
	InputIDs   []uuid.UUID
	OutputIDs  []uuid.UUID
	Status     Status
	Detail     string
}

// Log is an append-only sequence of records. It is owned by a single run and
// is not safe for concurrent use.
type Log struct {
	records []Record
}

// Append adds a record to the log, stamping it with the current time if the
// record carries none.
func (l *Log) Append(r Record) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	l.records = append(l.records, r)
}

// Records returns a copy of the log in append order.
func (l *Log) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

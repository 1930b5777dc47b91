package app

import (
	"time"

	"countries-go/internal/directory"
)

// Operation tracks one CLI command run. Its ID tags every log line the
// command writes, so one run can be followed through countries.log.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	StartedAt  time.Time
}

// NewOperation creates an operation that starts now and succeeds unless
// Fail is called.
func NewOperation(name, parameters string, idgen directory.IDGenerator, clock directory.Clock) *Operation {
	return &Operation{
		ID:         idgen.New(),
		Name:       name,
		Parameters: parameters,
		Status:     "success",
		StartedAt:  clock.Now(),
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Failed reports whether Fail was called.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(clock directory.Clock) time.Duration {
	return clock.Now().Sub(op.StartedAt)
}

package app

import (
	"testing"
	"time"

	"countries-go/internal/testutil"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		parameters string
	}{
		{name: "with parameters", operation: "List", parameters: "search=fi sort=alphabetical"},
		{name: "empty parameters", operation: "Browse", parameters: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := testutil.FixedClock()
			op := NewOperation(tt.operation, tt.parameters, testutil.NewPrefixedIDGenerator("op"), clock)

			if op.ID != "op-1" {
				t.Errorf("ID = %q, want %q", op.ID, "op-1")
			}
			if op.Name != tt.operation {
				t.Errorf("Name = %q, want %q", op.Name, tt.operation)
			}
			if op.Parameters != tt.parameters {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.parameters)
			}
			if op.Failed() {
				t.Error("Failed() = true for a new operation")
			}
			if !op.StartedAt.Equal(clock.Now()) {
				t.Errorf("StartedAt = %v, want %v", op.StartedAt, clock.Now())
			}
		})
	}
}

func TestOperation_FailAndElapsed(t *testing.T) {
	clock := testutil.FixedClock()
	op := NewOperation("Export", "", testutil.NewStubIDGenerator(), clock)

	clock.Advance(1500 * time.Millisecond)
	if got := op.Elapsed(clock); got != 1500*time.Millisecond {
		t.Errorf("Elapsed() = %v, want 1.5s", got)
	}

	op.Fail()
	if !op.Failed() || op.Status != "error" {
		t.Errorf("after Fail() Status = %q", op.Status)
	}
}

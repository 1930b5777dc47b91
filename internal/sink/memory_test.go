package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"countries-go/internal/directory"
)

func TestMemorySink_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink("mem")

	if err := s.Put(ctx, "exports/a.json", strings.NewReader("hello"), 5); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var buf bytes.Buffer
	if err := s.Get(ctx, "exports/a.json", &buf); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if buf.String() != "hello" {
		t.Errorf("Get() = %q, want %q", buf.String(), "hello")
	}

	if err := s.Put(ctx, "exports/b.json", strings.NewReader("short"), 100); err == nil {
		t.Error("Put() expected size mismatch error")
	}

	err := s.Get(ctx, "exports/missing.json", &buf)
	if !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("Get() missing error = %v, want ErrNotFound", err)
	}
}

func TestMemorySink_List(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink("mem")
	for _, key := range []string{"exports/b.json", "other/x", "exports/a.json.age"} {
		if err := s.Put(ctx, key, strings.NewReader("x"), 1); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	keys, err := s.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"exports/a.json.age", "exports/b.json"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", keys, want)
	}
	if s.Name() != "mem" {
		t.Errorf("Name() = %q, want %q", s.Name(), "mem")
	}
}

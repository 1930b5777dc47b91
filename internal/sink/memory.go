package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"countries-go/internal/directory"
)

// MemorySink is an in-memory implementation of the Sink interface.
// It keeps all objects in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemorySink struct {
	name    string
	objects map[string][]byte // key -> object
	mu      sync.RWMutex
}

// NewMemorySink creates a new in-memory sink with the given name.
func NewMemorySink(name string) *MemorySink {
	return &MemorySink{
		name:    name,
		objects: make(map[string][]byte),
	}
}

// Name returns the configured sink name.
func (m *MemorySink) Name() string {
	return m.name
}

// Put stores the object under key.
func (m *MemorySink) Put(_ context.Context, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = data
	return nil
}

// Get writes the object stored under key to w.
func (m *MemorySink) Get(_ context.Context, key string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return fmt.Errorf("object %s: %w", key, directory.ErrNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	return nil
}

// List returns the keys starting with prefix in lexical order.
func (m *MemorySink) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// ValidateSetup always succeeds for in-memory sink.
func (m *MemorySink) ValidateSetup(context.Context) error {
	return nil
}

// Compile-time check that MemorySink implements directory.Sink interface
var _ directory.Sink = (*MemorySink)(nil)

package directory

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is wrapped by Sink implementations when a key does not exist.
var ErrNotFound = errors.New("not found")

// Sink stores exported snapshots. Keys are slash-separated relative paths.
// All operations stream through io.Reader/io.Writer.
type Sink interface {
	// Put stores the object under key, replacing any previous object.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the object stored under key to w.
	// Returns an error wrapping ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string, w io.Writer) error

	// List returns the keys starting with prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// ValidateSetup verifies that the sink is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}

package sink

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"countries-go/internal/directory"
)

// FileSystemSink is a filesystem-based implementation of the Sink interface.
// Keys map to files below root:
//
//	<root>/
//	  exports/
//	    <id>.json      (plaintext exports)
//	    <id>.json.age  (encrypted exports)
type FileSystemSink struct {
	name string
	root string
}

// NewFileSystemSink creates a new filesystem sink rooted at the given path.
func NewFileSystemSink(name, root string) (*FileSystemSink, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sink root: %w", err)
	}

	return &FileSystemSink{
		name: name,
		root: root,
	}, nil
}

// Name returns the configured sink name.
func (s *FileSystemSink) Name() string {
	return s.name
}

// Put stores the object under key using an atomic write.
func (s *FileSystemSink) Put(_ context.Context, key string, r io.Reader, size int64) error {
	destPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return s.writeFile(destPath, r, size)
}

// Get writes the object stored under key to w.
func (s *FileSystemSink) Get(_ context.Context, key string, w io.Writer) error {
	srcPath, err := s.pathFor(key)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("object %s: %w", key, directory.ErrNotFound)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	return nil
}

// List returns the keys starting with prefix in lexical order.
// Temp files left by interrupted writes are skipped.
func (s *FileSystemSink) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.root, err)
	}

	slices.Sort(keys)
	return keys, nil
}

// ValidateSetup verifies that the sink root is an accessible directory.
func (s *FileSystemSink) ValidateSetup(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("sink root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sink root is not a directory: %s", s.root)
	}
	return nil
}

// pathFor maps a key to a path below root, rejecting keys that escape it.
func (s *FileSystemSink) pathFor(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || clean != "/"+key {
		return "", fmt.Errorf("invalid key: %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (s *FileSystemSink) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemSink implements directory.Sink interface
var _ directory.Sink = (*FileSystemSink)(nil)

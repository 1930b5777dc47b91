package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"countries-go/internal/directory"
)

func TestNewFileSystemSink(t *testing.T) {
	root := filepath.Join(t.TempDir(), "sink")

	s, err := NewFileSystemSink("local", root)
	if err != nil {
		t.Fatalf("NewFileSystemSink() error = %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root not created: %v", err)
	}
	if err := s.ValidateSetup(context.Background()); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
	if s.Name() != "local" {
		t.Errorf("Name() = %q, want %q", s.Name(), "local")
	}
}

func TestFileSystemSink_Put(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		data    string
		size    int64
		wantErr bool
	}{
		{name: "store object successfully", key: "exports/abc.json", data: "hello world", size: 11},
		{name: "size mismatch", key: "exports/def.json", data: "hello", size: 100, wantErr: true},
		{name: "empty object", key: "exports/empty.json", data: "", size: 0},
		{name: "key escaping root", key: "../outside.json", data: "x", size: 1, wantErr: true},
		{name: "unclean key", key: "exports//x.json", data: "x", size: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			s, err := NewFileSystemSink("test", root)
			if err != nil {
				t.Fatalf("NewFileSystemSink() error = %v", err)
			}

			err = s.Put(context.Background(), tt.key, strings.NewReader(tt.data), tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Put() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				keys, _ := s.List(context.Background(), "")
				if len(keys) != 0 {
					t.Errorf("failed Put() left files behind: %v", keys)
				}
				return
			}

			got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(tt.key)))
			if err != nil {
				t.Fatalf("reading stored object: %v", err)
			}
			if string(got) != tt.data {
				t.Errorf("stored = %q, want %q", got, tt.data)
			}
		})
	}
}

func TestFileSystemSink_GetList(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileSystemSink("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemSink() error = %v", err)
	}

	for _, key := range []string{"exports/2.json", "exports/1.json.age", "notes/readme"} {
		if err := s.Put(ctx, key, strings.NewReader(key), int64(len(key))); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	var buf bytes.Buffer
	if err := s.Get(ctx, "exports/2.json", &buf); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if buf.String() != "exports/2.json" {
		t.Errorf("Get() = %q", buf.String())
	}

	if err := s.Get(ctx, "exports/3.json", &buf); !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("Get() missing error = %v, want ErrNotFound", err)
	}

	keys, err := s.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if strings.Join(keys, ",") != "exports/1.json.age,exports/2.json" {
		t.Errorf("List() = %v", keys)
	}
}

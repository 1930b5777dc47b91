package sink

import (
	"context"
	"fmt"

	"countries-go/internal/config"
	"countries-go/internal/directory"
)

// NewSinkFromConfig creates a Sink implementation based on the sink config type.
func NewSinkFromConfig(ctx context.Context, cfg config.SinkConfig) (directory.Sink, error) {
	switch cfg.Type {
	case "memory":
		return NewMemorySink(cfg.Name), nil
	case "s3":
		return NewS3Sink(ctx, cfg)
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem sink requires fs_root to be set")
		}
		return NewFileSystemSink(cfg.Name, cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}

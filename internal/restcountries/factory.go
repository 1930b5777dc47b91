package restcountries

import (
	"fmt"
	"time"

	"countries-go/internal/config"
	"countries-go/internal/directory"
)

// NewClientFromConfig creates a directory.Client based on the source config type.
func NewClientFromConfig(cfg config.SourceConfig) (directory.Client, error) {
	switch cfg.Type {
	case "http", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultBaseURL
		}
		allPath := cfg.AllPath
		if allPath == "" {
			allPath = config.DefaultAllPath
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if cfg.TimeoutSeconds <= 0 {
			timeout = config.DefaultTimeoutSeconds * time.Second
		}
		return NewHTTPClient(baseURL, allPath, cfg.Fields, timeout)
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file source requires path to be set")
		}
		return NewFileClient(cfg.Path), nil
	case "memory":
		return NewMemoryClient(SampleCountries()), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default values for the REST Countries source.
const (
	DefaultBaseURL        = "https://restcountries.com/v2/"
	DefaultAllPath        = "all"
	DefaultFields         = "name,capital,flag,population,area,currencies,languages,region"
	DefaultTimeoutSeconds = 15
)

// Config represents the main configuration for countries.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"` // "debug", "info" (default), "warn", "error"
	Source     SourceConfig     `toml:"source"`
	Display    DisplayConfig    `toml:"display"`
	Sinks      []SinkConfig     `toml:"sinks"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// SourceConfig selects where the country directory is fetched from.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SourceConfig struct {
	Type string `toml:"type"` // "http" (default), "file", or "memory"

	// HTTP-specific fields (only used when Type == "http")
	BaseURL        string `toml:"base_url,omitempty"`
	AllPath        string `toml:"all_path,omitempty"`
	Fields         string `toml:"fields,omitempty"` // comma-separated; empty disables the fields filter
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`

	// File-specific fields (only used when Type == "file")
	Path string `toml:"path,omitempty"`
}

// DisplayConfig holds presentation defaults.
type DisplayConfig struct {
	DefaultSort string `toml:"default_sort"` // "none", "asc", "desc" or "alpha"
}

// SinkConfig represents configuration for an export destination.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SinkConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", or "s3"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"` // for S3-compatible stores; enables path-style addressing
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for encrypted exports.
// Recipients lists extra age public keys ("age1...") that may also decrypt
// exports, so they can be shared without sharing the passphrase.
type EncryptionConfig struct {
	Type           string   `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string   `toml:"public_key_path"`
	PrivateKeyPath string   `toml:"private_key_path"`
	Recipients     []string `toml:"recipients,omitempty"`
}

// NewConfig creates a new Config rooted at baseDir with the REST Countries
// source, a filesystem export sink and default key paths.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Source: SourceConfig{
			Type:           "http",
			BaseURL:        DefaultBaseURL,
			AllPath:        DefaultAllPath,
			Fields:         DefaultFields,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Display: DisplayConfig{DefaultSort: "none"},
		Sinks: []SinkConfig{
			{Type: "filesystem", Name: "local", FSRoot: filepath.Join(baseDir, "exports")},
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "countries.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "countries.key"),
		},
	}
}

// FindSink returns the sink named name, or the first sink when name is empty.
func (c *Config) FindSink(name string) (SinkConfig, error) {
	if len(c.Sinks) == 0 {
		return SinkConfig{}, fmt.Errorf("no sinks configured")
	}
	if name == "" {
		return c.Sinks[0], nil
	}
	for _, s := range c.Sinks {
		if s.Name == name {
			return s, nil
		}
	}
	return SinkConfig{}, fmt.Errorf("no sink named %q", name)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

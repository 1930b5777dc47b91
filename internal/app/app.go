package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"countries-go/internal/config"
	"countries-go/internal/directory"
	"countries-go/internal/encryption"
	"countries-go/internal/restcountries"
	"countries-go/internal/sink"
)

// CountriesApp is the application layer between the CLI and the directory.
// It constructs all dependencies from config, exposes the operations the
// commands need and owns the log file until Close.
type CountriesApp struct {
	cfg       *config.Config
	client    directory.Client
	encryptor directory.Encryptor
	logger    directory.Logger
	clock     directory.Clock
	idgen     directory.IDGenerator
	sinks     map[string]directory.Sink
	op        *Operation
	logFile   *os.File
}

// Option overrides a dependency NewCountriesApp would otherwise build from config.
type Option func(*CountriesApp)

// WithClient replaces the configured directory source.
func WithClient(c directory.Client) Option {
	return func(a *CountriesApp) { a.client = c }
}

// WithEncryptor replaces the configured encryptor.
func WithEncryptor(e directory.Encryptor) Option {
	return func(a *CountriesApp) { a.encryptor = e }
}

// WithClock replaces the wall clock.
func WithClock(c directory.Clock) Option {
	return func(a *CountriesApp) { a.clock = c }
}

// WithIDGenerator replaces the UUID generator used for operation and export IDs.
func WithIDGenerator(g directory.IDGenerator) Option {
	return func(a *CountriesApp) { a.idgen = g }
}

// NewCountriesApp creates a fully wired CountriesApp from the given config.
// operation identifies the CLI command being run (e.g. "List", "Export").
// Warnings and errors are echoed to console. The caller must call Close when done.
func NewCountriesApp(cfg *config.Config, operation, parameters string, console io.Writer, opts ...Option) (*CountriesApp, error) {
	a := &CountriesApp{
		cfg:   cfg,
		clock: directory.RealClock{},
		idgen: directory.UUIDGenerator{},
		sinks: make(map[string]directory.Sink),
	}
	for _, opt := range opts {
		opt(a)
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if a.client == nil {
		client, err := restcountries.NewClientFromConfig(cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("creating directory client: %w", err)
		}
		a.client = client
	}

	if a.encryptor == nil {
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return nil, fmt.Errorf("creating encryptor: %w", err)
		}
		a.encryptor = enc
	}

	a.op = NewOperation(operation, parameters, a.idgen, a.clock)
	logger, logFile, err := newLogger(cfg.LogDir, a.op.ID, level, console)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a.logger = &slogAdapter{l: logger}
	a.logFile = logFile

	a.logger.Debug("operation started", "operation", operation, "parameters", parameters)
	return a, nil
}

// Logger returns the operation's logger.
func (a *CountriesApp) Logger() directory.Logger {
	return a.logger
}

// DefaultSort returns the configured default sort mode.
func (a *CountriesApp) DefaultSort() (directory.SortMode, error) {
	return directory.ParseSortMode(a.cfg.Display.DefaultSort)
}

// OpenView starts fetching the directory and returns the live view state.
// The caller must Close it.
func (a *CountriesApp) OpenView(ctx context.Context, search string, mode directory.SortMode) *directory.ViewState {
	return directory.NewViewState(ctx, a.client,
		directory.WithLogger(a.logger),
		directory.WithClock(a.clock),
		directory.WithIDGenerator(a.idgen),
		directory.WithSearchText(search),
		directory.WithSortMode(mode),
	)
}

// Load fetches the directory once and returns the settled snapshot.
// A failed fetch returns the snapshot together with the fetch error.
func (a *CountriesApp) Load(ctx context.Context, search string, mode directory.SortMode) (directory.Snapshot, error) {
	vs := a.OpenView(ctx, search, mode)
	defer vs.Close()

	if _, err := vs.Wait(ctx); err != nil {
		return vs.Snapshot(), err
	}
	return vs.Snapshot(), nil
}

// Export writes the visible list of snap to the named sink (the first
// configured sink when name is empty).
func (a *CountriesApp) Export(ctx context.Context, snap directory.Snapshot, sinkName string, encrypt bool) (*directory.ExportRecord, error) {
	exp, err := a.exporter(ctx, sinkName)
	if err != nil {
		return nil, err
	}
	return exp.Export(ctx, snap, encrypt)
}

// ListExports returns the exports stored on the named sink.
func (a *CountriesApp) ListExports(ctx context.Context, sinkName string) ([]directory.ExportRecord, error) {
	exp, err := a.exporter(ctx, sinkName)
	if err != nil {
		return nil, err
	}
	return exp.List(ctx)
}

// ShowExport reads one export back. passphrase is only called when the
// export turns out to be encrypted.
func (a *CountriesApp) ShowExport(ctx context.Context, sinkName, id string, passphrase func() (string, error)) (*directory.ExportDocument, error) {
	exp, err := a.exporter(ctx, sinkName)
	if err != nil {
		return nil, err
	}

	doc, err := exp.Load(ctx, id, nil)
	if !errors.Is(err, directory.ErrEncrypted) {
		return doc, err
	}

	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	dec, err := a.encryptor.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	return exp.Load(ctx, id, dec)
}

// KeysConfigured reports whether an encryption key pair exists.
func (a *CountriesApp) KeysConfigured() bool {
	return a.encryptor.IsConfigured()
}

// SetupKeys creates the encryption key pair protected by passphrase.
func (a *CountriesApp) SetupKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up encryption keys: %w", err)
	}
	a.logger.Info("encryption keys created")
	return nil
}

// Fail records that the operation ended with err.
func (a *CountriesApp) Fail(err error) {
	a.op.Fail()
	a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
}

// Close logs the operation outcome and closes the log file.
func (a *CountriesApp) Close() error {
	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"elapsed", a.op.Elapsed(a.clock),
	)
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			return fmt.Errorf("closing log file: %w", err)
		}
	}
	return nil
}

// exporter returns an Exporter for the named sink, creating and validating
// the sink on first use.
func (a *CountriesApp) exporter(ctx context.Context, name string) (*directory.Exporter, error) {
	sc, err := a.cfg.FindSink(name)
	if err != nil {
		return nil, err
	}

	s, ok := a.sinks[sc.Name]
	if !ok {
		s, err = sink.NewSinkFromConfig(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("creating sink %s: %w", sc.Name, err)
		}
		if err := s.ValidateSetup(ctx); err != nil {
			return nil, fmt.Errorf("validating sink %s: %w", sc.Name, err)
		}
		a.sinks[sc.Name] = s
	}

	return directory.NewExporter(s, a.encryptor, a.logger, a.clock, a.idgen), nil
}

package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"countries-go/internal/model"
)

const (
	exportPrefix        = "exports/"
	plainSuffix         = ".json"
	encryptedSuffix     = ".json.age"
	exportFormatVersion = 1
)

// ErrEncrypted is returned by Exporter.Load when the export is encrypted and
// no DecryptionContext was supplied.
var ErrEncrypted = errors.New("export is encrypted")

// ExportDocument is the on-sink representation of an exported visible list.
type ExportDocument struct {
	Version    int             `json:"version"`
	ID         string          `json:"id"`
	ExportedAt time.Time       `json:"exported_at"`
	FetchedAt  time.Time       `json:"fetched_at"`
	SearchText string          `json:"search_text"`
	SortMode   SortMode        `json:"sort_mode"`
	Count      int             `json:"count"`
	Countries  []model.Country `json:"countries"`
}

// ExportRecord describes one export on a sink.
type ExportRecord struct {
	ID        string
	Key       string
	Encrypted bool
	Count     int // zero when listed rather than written
}

// Exporter writes snapshots of the visible list to a Sink.
type Exporter struct {
	sink      Sink
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewExporter creates an Exporter. encryptor may be nil, in which case only
// plaintext exports are possible.
func NewExporter(sink Sink, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *Exporter {
	return &Exporter{
		sink:      sink,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// Export writes the visible list of snap to the sink. The snapshot must come
// from a populated directory; exporting before a successful fetch fails.
func (e *Exporter) Export(ctx context.Context, snap Snapshot, encrypt bool) (*ExportRecord, error) {
	if snap.State != StatePopulated {
		return nil, fmt.Errorf("directory is not loaded (state %s)", snap.State)
	}
	if encrypt && e.encryptor == nil {
		return nil, fmt.Errorf("encryption requested but no encryptor is configured")
	}
	if encrypt && !e.encryptor.IsConfigured() {
		return nil, fmt.Errorf("encryption keys are not set up: run `countries keys init`")
	}

	doc := ExportDocument{
		Version:    exportFormatVersion,
		ID:         e.idgen.New(),
		ExportedAt: e.clock.Now().UTC(),
		FetchedAt:  snap.FetchedAt.UTC(),
		SearchText: snap.SearchText,
		SortMode:   snap.SortMode,
		Count:      len(snap.Visible),
		Countries:  snap.Visible,
	}
	if doc.Countries == nil {
		doc.Countries = []model.Country{}
	}

	var plain bytes.Buffer
	enc := json.NewEncoder(&plain)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}

	payload := &plain
	key := exportPrefix + doc.ID + plainSuffix
	if encrypt {
		var ciphertext bytes.Buffer
		if err := e.encryptor.Encrypt(&plain, &ciphertext); err != nil {
			return nil, fmt.Errorf("encrypting export: %w", err)
		}
		payload = &ciphertext
		key = exportPrefix + doc.ID + encryptedSuffix
	}

	size := int64(payload.Len())
	if err := e.sink.Put(ctx, key, payload, size); err != nil {
		return nil, fmt.Errorf("writing export: %w", err)
	}

	e.logger.Info("snapshot exported", "id", doc.ID, "key", key, "count", doc.Count, "encrypted", encrypt)
	return &ExportRecord{ID: doc.ID, Key: key, Encrypted: encrypt, Count: doc.Count}, nil
}

// List returns the exports on the sink, ordered by key.
func (e *Exporter) List(ctx context.Context) ([]ExportRecord, error) {
	keys, err := e.sink.List(ctx, exportPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}

	records := make([]ExportRecord, 0, len(keys))
	for _, key := range keys {
		name := path.Base(key)
		switch {
		case strings.HasSuffix(name, encryptedSuffix):
			records = append(records, ExportRecord{ID: strings.TrimSuffix(name, encryptedSuffix), Key: key, Encrypted: true})
		case strings.HasSuffix(name, plainSuffix):
			records = append(records, ExportRecord{ID: strings.TrimSuffix(name, plainSuffix), Key: key})
		}
	}
	return records, nil
}

// Load reads the export with the given id. Encrypted exports need dec;
// without it Load returns an error wrapping ErrEncrypted.
func (e *Exporter) Load(ctx context.Context, id string, dec DecryptionContext) (*ExportDocument, error) {
	var buf bytes.Buffer
	err := e.sink.Get(ctx, exportPrefix+id+plainSuffix, &buf)
	if errors.Is(err, ErrNotFound) {
		var ciphertext bytes.Buffer
		if err := e.sink.Get(ctx, exportPrefix+id+encryptedSuffix, &ciphertext); err != nil {
			return nil, fmt.Errorf("reading export %s: %w", id, err)
		}
		if dec == nil {
			return nil, fmt.Errorf("reading export %s: %w", id, ErrEncrypted)
		}
		if err := dec.Decrypt(&ciphertext, &buf); err != nil {
			return nil, fmt.Errorf("decrypting export %s: %w", id, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("reading export %s: %w", id, err)
	}

	var doc ExportDocument
	if err := json.NewDecoder(&buf).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding export %s: %w", id, err)
	}
	return &doc, nil
}

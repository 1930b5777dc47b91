package restcountries

import (
	"context"
	"os"

	"countries-go/internal/directory"
	"countries-go/internal/model"
)

// FileClient reads the directory from a JSON file in the same shape the
// HTTP endpoint returns. Useful offline and for reproducible demos.
type FileClient struct {
	path string
}

// NewFileClient creates a FileClient reading from path.
func NewFileClient(path string) *FileClient {
	return &FileClient{path: path}
}

// FetchAll reads and decodes the file.
func (c *FileClient) FetchAll(ctx context.Context) ([]model.Country, error) {
	if err := ctx.Err(); err != nil {
		return nil, &directory.TransportError{Op: "read " + c.path, Err: err}
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, &directory.TransportError{Op: "read " + c.path, Err: err}
	}
	return decodeCountries(data)
}

// Compile-time check that FileClient implements directory.Client interface
var _ directory.Client = (*FileClient)(nil)

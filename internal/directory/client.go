package directory

import (
	"context"

	"countries-go/internal/model"
)

// Client fetches the full country directory from an upstream source.
// FetchAll completes exactly once per call and must honor ctx cancellation.
// Failures are reported as *TransportError, *ServerError or *DecodeError.
type Client interface {
	FetchAll(ctx context.Context) ([]model.Country, error)
}

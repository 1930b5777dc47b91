package restcountries

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"countries-go/internal/directory"
	"countries-go/internal/model"
)

// UserAgent is sent with every request to the directory service.
const UserAgent = "countries-go/1.0"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// HTTPClient fetches the directory from the REST Countries API:
// GET <base>/<all>?fields=<fields>, answering with a JSON array.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for baseURL. fields may be empty, in which
// case the service returns every field it knows.
func NewHTTPClient(baseURL, allPath, fields string, timeout time.Duration) (*HTTPClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https: %q", baseURL)
	}

	u := base.JoinPath(allPath)
	if fields != "" {
		q := u.Query()
		q.Set("fields", fields)
		u.RawQuery = q.Encode()
	}

	return &HTTPClient{
		endpoint: u.String(),
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Endpoint returns the full URL requested by FetchAll.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// FetchAll performs one GET and decodes the response.
func (c *HTTPClient) FetchAll(ctx context.Context) ([]model.Country, error) {
	op := "GET " + c.endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, &directory.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &directory.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &directory.ServerError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(body)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &directory.TransportError{Op: op, Err: fmt.Errorf("reading body: %w", err)}
	}
	return decodeCountries(data)
}

// Compile-time check that HTTPClient implements directory.Client interface
var _ directory.Client = (*HTTPClient)(nil)

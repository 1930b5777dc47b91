package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"countries-go/internal/directory"
	"countries-go/internal/model"
)

// Response is one scripted outcome of ScriptedClient.FetchAll.
// When Gate is non-nil the call blocks until Gate is closed or the
// context is cancelled.
type Response struct {
	Countries []model.Country
	Err       error
	Gate      chan struct{}
}

// ScriptedClient is a directory.Client that replays responses in order.
// Once the script runs out the last response repeats.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []Response
	calls     int
	started   chan int
	returned  int
}

var _ directory.Client = (*ScriptedClient)(nil)

// NewScriptedClient creates a client replaying responses.
func NewScriptedClient(responses ...Response) *ScriptedClient {
	return &ScriptedClient{
		responses: responses,
		started:   make(chan int, 64),
	}
}

// Succeeding returns a client that always returns countries.
func Succeeding(countries []model.Country) *ScriptedClient {
	return NewScriptedClient(Response{Countries: countries})
}

// Failing returns a client that always returns err.
func Failing(err error) *ScriptedClient {
	return NewScriptedClient(Response{Err: err})
}

func (c *ScriptedClient) FetchAll(ctx context.Context) ([]model.Country, error) {
	c.mu.Lock()
	idx := c.calls
	c.calls++
	var resp Response
	if len(c.responses) > 0 {
		resp = c.responses[min(idx, len(c.responses)-1)]
	}
	c.mu.Unlock()

	select {
	case c.started <- idx + 1:
	default:
	}

	if resp.Gate != nil {
		select {
		case <-resp.Gate:
		case <-ctx.Done():
			c.markReturned()
			return nil, &directory.TransportError{Op: "fetch", Err: ctx.Err()}
		}
	}
	c.markReturned()

	if resp.Err != nil {
		return nil, resp.Err
	}
	return slices.Clone(resp.Countries), nil
}

func (c *ScriptedClient) markReturned() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.returned++
}

// Started delivers the 1-based call number of each FetchAll as it begins.
func (c *ScriptedClient) Started() <-chan int {
	return c.started
}

// Calls returns how many times FetchAll has been called.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Returned returns how many FetchAll calls have returned.
func (c *ScriptedClient) Returned() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.returned
}

// ErrUnreachable is a ready-made transport failure for tests.
var ErrUnreachable = &directory.TransportError{Op: "fetch", Err: errors.New("connection refused")}

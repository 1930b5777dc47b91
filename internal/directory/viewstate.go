package directory

import (
	"context"
	"slices"
	"sync"
	"time"

	"countries-go/internal/model"
)

// ViewState owns the fetched directory and the two user-controlled inputs
// (search text and sort mode), and keeps the visible list derived from them.
//
// All inputs, the derived list and the fetch lifecycle share one mutex, so a
// reader never observes a torn combination. Every change bumps Version and is
// published to subscribers while the mutex is held, so subscribers see
// versions in order.
type ViewState struct {
	client Client
	logger Logger
	clock  Clock
	idgen  IDGenerator
	parent context.Context

	mu        sync.Mutex
	raw       []model.Country
	search    string
	sort      SortMode
	visible   []model.Country
	state     State
	err       error
	fetchedAt time.Time
	version   uint64
	closed    bool

	gen    uint64 // generation of the most recent fetch; older results are discarded
	cancel context.CancelFunc
	done   chan struct{} // closed when the most recent fetch settles
	subs   map[string]chan Snapshot

	wg sync.WaitGroup
}

// Option configures a ViewState.
type Option func(*ViewState)

// WithLogger sets the logger used to report fetch outcomes.
func WithLogger(l Logger) Option {
	return func(vs *ViewState) { vs.logger = l }
}

// WithClock sets the clock used to stamp successful fetches.
func WithClock(c Clock) Option {
	return func(vs *ViewState) { vs.clock = c }
}

// WithIDGenerator sets the generator for fetch and subscriber IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(vs *ViewState) { vs.idgen = g }
}

// WithSearchText sets the initial search text.
func WithSearchText(text string) Option {
	return func(vs *ViewState) { vs.search = text }
}

// WithSortMode sets the initial sort mode.
func WithSortMode(mode SortMode) Option {
	return func(vs *ViewState) { vs.sort = mode }
}

// NewViewState creates a ViewState and starts the initial fetch.
// The fetch runs under ctx; the caller must call Close when the owning scope
// ends, which cancels a fetch still in flight.
func NewViewState(ctx context.Context, client Client, opts ...Option) *ViewState {
	vs := &ViewState{
		client: client,
		logger: NewNopLogger(),
		clock:  RealClock{},
		idgen:  UUIDGenerator{},
		parent: ctx,
		raw:    []model.Country{},
		state:  StateIdle,
		subs:   make(map[string]chan Snapshot),
	}
	for _, opt := range opts {
		opt(vs)
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.recomputeLocked()
	vs.startFetchLocked()
	return vs
}

// SetSearchText replaces the search text and recomputes the visible list.
// Setting the text already in effect changes nothing.
func (vs *ViewState) SetSearchText(text string) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.closed || vs.search == text {
		return
	}
	vs.search = text
	vs.recomputeLocked()
	vs.publishLocked()
}

// SetSortMode replaces the sort mode and recomputes the visible list.
// Setting the mode already in effect changes nothing.
func (vs *ViewState) SetSortMode(mode SortMode) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.closed || vs.sort == mode {
		return
	}
	vs.sort = mode
	vs.recomputeLocked()
	vs.publishLocked()
}

// Refresh starts a new fetch from any lifecycle state. A fetch still in
// flight is cancelled and its result discarded.
func (vs *ViewState) Refresh() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.closed {
		return ErrClosed
	}
	vs.startFetchLocked()
	return nil
}

// Wait blocks until the current fetch settles and returns the resulting
// state. For StateFailed the fetch error is returned alongside it.
func (vs *ViewState) Wait(ctx context.Context) (State, error) {
	for {
		vs.mu.Lock()
		if vs.closed {
			state := vs.state
			vs.mu.Unlock()
			return state, ErrClosed
		}
		if vs.state != StateLoading {
			state, err := vs.state, vs.err
			vs.mu.Unlock()
			return state, err
		}
		done := vs.done
		vs.mu.Unlock()

		// A superseded fetch also closes its channel; loop to wait for the
		// one that replaced it.
		select {
		case <-done:
		case <-ctx.Done():
			return StateLoading, ctx.Err()
		}
	}
}

// Snapshot returns a consistent copy of the current state.
// The Visible slice is shared and must be treated as read-only.
func (vs *ViewState) Snapshot() Snapshot {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.snapshotLocked()
}

// Visible returns the current visible list.
func (vs *ViewState) Visible() []model.Country {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return slices.Clone(vs.visible)
}

// SearchText returns the search text in effect.
func (vs *ViewState) SearchText() string {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.search
}

// SortMode returns the sort mode in effect.
func (vs *ViewState) SortMode() SortMode {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.sort
}

// State returns the current lifecycle state.
func (vs *ViewState) State() State {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.state
}

// Subscribe returns a channel that always holds the latest snapshot.
// Intermediate snapshots may be skipped when the reader falls behind, but
// versions never go backwards. The current snapshot is delivered at once.
// The returned func unsubscribes and closes the channel; Close does the
// same for every subscriber.
func (vs *ViewState) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.closed {
		close(ch)
		return ch, func() {}
	}

	id := vs.idgen.New()
	vs.subs[id] = ch
	ch <- vs.snapshotLocked()

	return ch, func() {
		vs.mu.Lock()
		defer vs.mu.Unlock()
		if sub, ok := vs.subs[id]; ok {
			delete(vs.subs, id)
			close(sub)
		}
	}
}

// Close cancels any fetch in flight, waits for it to return and closes all
// subscriber channels. A result arriving after Close is never applied.
func (vs *ViewState) Close() error {
	vs.mu.Lock()
	if vs.closed {
		vs.mu.Unlock()
		return nil
	}
	vs.closed = true
	if vs.cancel != nil {
		vs.cancel()
		vs.cancel = nil
	}
	for id, ch := range vs.subs {
		delete(vs.subs, id)
		close(ch)
	}
	vs.mu.Unlock()

	vs.wg.Wait()
	return nil
}

// startFetchLocked moves the lifecycle to Loading and launches a fetch.
func (vs *ViewState) startFetchLocked() {
	if vs.cancel != nil {
		vs.cancel()
	}

	vs.gen++
	gen := vs.gen
	ctx, cancel := context.WithCancel(vs.parent)
	done := make(chan struct{})

	vs.cancel = cancel
	vs.done = done
	vs.state = StateLoading
	vs.err = nil
	vs.publishLocked()

	vs.wg.Add(1)
	go vs.fetch(ctx, cancel, gen, done)
}

func (vs *ViewState) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, done chan struct{}) {
	defer vs.wg.Done()
	defer close(done)
	defer cancel()

	fetchID := vs.idgen.New()
	vs.logger.Debug("fetching directory", "fetch_id", fetchID)

	countries, err := vs.client.FetchAll(ctx)

	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.closed || gen != vs.gen {
		vs.logger.Debug("discarding superseded fetch", "fetch_id", fetchID)
		return
	}
	vs.cancel = nil

	if err != nil {
		vs.state = StateFailed
		vs.err = err
		vs.logger.Error("directory fetch failed", append([]any{"fetch_id", fetchID}, logArgs(err)...)...)
		vs.publishLocked()
		return
	}

	vs.raw = slices.Clone(countries)
	if vs.raw == nil {
		vs.raw = []model.Country{}
	}
	vs.state = StatePopulated
	vs.fetchedAt = vs.clock.Now()
	vs.recomputeLocked()

	for _, c := range vs.raw {
		vs.logger.Debug("country fetched", "name", c.Name, "flag", c.FlagURL)
	}
	vs.logger.Info("directory fetched", "fetch_id", fetchID, "count", len(vs.raw))
	vs.publishLocked()
}

func (vs *ViewState) recomputeLocked() {
	vs.visible = Derive(vs.raw, vs.search, vs.sort)
}

func (vs *ViewState) snapshotLocked() Snapshot {
	return Snapshot{
		Version:    vs.version,
		Visible:    vs.visible,
		Total:      len(vs.raw),
		SearchText: vs.search,
		SortMode:   vs.sort,
		State:      vs.state,
		Err:        vs.err,
		FetchedAt:  vs.fetchedAt,
	}
}

// publishLocked bumps the version and hands the new snapshot to every
// subscriber, replacing any snapshot the subscriber has not read yet.
// Only publishers send, and they hold mu, so the send cannot block.
func (vs *ViewState) publishLocked() {
	vs.version++
	snap := vs.snapshotLocked()
	for _, ch := range vs.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

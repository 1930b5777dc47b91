package directory

import (
	"fmt"
	"time"

	"countries-go/internal/model"
)

// State is the phase of the directory fetch.
type State int

const (
	// StateIdle means no fetch has started yet.
	StateIdle State = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StatePopulated means the last fetch succeeded.
	StatePopulated
	// StateFailed means the last fetch failed; the previous list is kept.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a consistent view of a ViewState at one version.
// Visible is owned by the snapshot; callers may keep it.
type Snapshot struct {
	Version    uint64
	Visible    []model.Country
	Total      int // size of the raw directory
	SearchText string
	SortMode   SortMode
	State      State
	Err        error     // last fetch failure, set only in StateFailed
	FetchedAt  time.Time // time of the last successful fetch
}

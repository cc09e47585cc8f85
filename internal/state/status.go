package state

import "time"

// FetchStatus is the lifecycle of a cached entity.
type FetchStatus int

const (
	StatusIdle FetchStatus = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s FetchStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// FetchState is the observable status of one cache. Err holds the most recent
// failure and is cleared by the next successful fetch.
type FetchState struct {
	Status    FetchStatus
	Err       error
	UpdatedAt time.Time
}

// requests issues monotonically increasing tokens per cache key and records
// the resulting FetchState. Callers hold the owning store's lock.
type requests struct {
	seq    map[string]uint64
	states map[string]FetchState
}

func (r *requests) begin(key string) uint64 {
	if r.seq == nil {
		r.seq = make(map[string]uint64)
		r.states = make(map[string]FetchState)
	}
	r.seq[key]++
	st := r.states[key]
	st.Status = StatusLoading
	r.states[key] = st
	return r.seq[key]
}

// finish records the outcome of request tok. It reports false, and records
// nothing, when a newer request for key has been issued since.
func (r *requests) finish(key string, tok uint64, err error) bool {
	if r.seq[key] != tok {
		return false
	}
	st := FetchState{Status: StatusLoaded, UpdatedAt: time.Now()}
	if err != nil {
		st.Status = StatusError
		st.Err = err
	}
	r.states[key] = st
	return true
}

func (r *requests) state(key string) FetchState {
	return r.states[key]
}

// reset returns every key to Idle. Sequence numbers keep increasing so that
// responses to requests issued before the reset are still discarded.
func (r *requests) reset() {
	for key := range r.seq {
		r.seq[key]++
	}
	clear(r.states)
}

package state

import "errors"

var (
	// ErrNotCached is returned when a mutation targets an id that neither
	// cache holds (a stale reference).
	ErrNotCached = errors.New("not cached")
	// ErrUnauthenticated is returned by actions that need the viewer's user id
	// when no profile is loaded.
	ErrUnauthenticated = errors.New("no authenticated user")
	// ErrSuperseded is returned by a fetch whose response arrived after a newer
	// request for the same cache was issued. The cache keeps the newer data.
	ErrSuperseded = errors.New("superseded by a newer request")
)

package app

import (
	"context"
	"errors"
	"time"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/state"
)

const (
	defaultRefreshInterval = 30 * time.Second
	maxBackoff             = 30 * time.Second
	// maxBackoffFactor lets intervals at or above maxBackoff still back off.
	maxBackoffFactor = 4
)

// StartRefresher launches a background goroutine that reloads the post list
// of ownerID, or of the signed-in user when ownerID is empty. Consecutive
// failures back off exponentially (see calculateBackoff). It returns immediately;
// the returned channel is closed once the goroutine exits after ctx ends.
func (s *Session) StartRefresher(ctx context.Context, ownerID string, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = s.cfg.RefreshInterval
	}
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		failures := 0
		for {
			if ok := s.refresh(ctx, ownerID); ok {
				failures = 0
			} else {
				failures++
			}
			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// refresh reports false when the reload failed.
func (s *Session) refresh(ctx context.Context, ownerID string) bool {
	if ownerID == "" {
		id, ok := s.profile.UserID()
		if !ok {
			return true
		}
		ownerID = id
	}
	_, err := s.posts.SetPosts(ctx, ownerID)
	switch {
	case err == nil, errors.Is(err, state.ErrSuperseded):
		return true
	case ctx.Err() != nil:
		return true
	default:
		s.logger.Printf("post refresh failed: %v", err)
		return false
	}
}

// calculateBackoff doubles base once per consecutive failure. The wait is
// capped at the larger of maxBackoff and maxBackoffFactor*base, so it never
// drops below base.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := max(maxBackoff, base*maxBackoffFactor)
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}

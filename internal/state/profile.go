package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
)

// ProfileAPI is the subset of the forum API the profile store calls.
type ProfileAPI interface {
	FetchProfile(ctx context.Context, token string) (forum.User, error)
}

const keyProfile = "profile"

// Profile is the authenticated user and the role derived from it.
type Profile struct {
	User forum.User `json:"user"`
	Role forum.Role `json:"role"`
}

// CanModify reports whether the profile may edit or delete post: owners and
// admins can.
func (p Profile) CanModify(post forum.Post) bool {
	if p.Role == forum.RoleAdmin {
		return true
	}
	return p.User.ID != "" && p.User.ID == post.UserID
}

// ProfileSnapshot is the persisted form of a ProfileStore. The session token
// is stored only as a fingerprint.
type ProfileSnapshot struct {
	Profile    Profile `json:"profile"`
	HasProfile bool    `json:"hasProfile"`
	TokenHash  string  `json:"tokenHash,omitempty"`
}

// ProfileStore caches the profile of the current session token.
type ProfileStore struct {
	api    ProfileAPI
	logger *log.Logger

	mu        sync.RWMutex
	profile   Profile
	has       bool
	tokenHash string
	requests  requests
}

// NewProfileStore builds an empty store. A nil logger uses log.Default.
func NewProfileStore(api ProfileAPI, logger *log.Logger) *ProfileStore {
	if logger == nil {
		logger = log.Default()
	}
	return &ProfileStore{api: api, logger: logger}
}

// GetProfile returns the profile for token, fetching it unless it is already
// loaded for the same token. On failure the previous profile is kept, so a
// transient error does not look like a logout, and the error is returned and
// recorded in Status.
func (s *ProfileStore) GetProfile(ctx context.Context, token string) (Profile, error) {
	hash := Fingerprint(token)

	s.mu.Lock()
	if s.has && s.tokenHash == hash && s.requests.state(keyProfile).Status == StatusLoaded {
		p := s.profile
		s.mu.Unlock()
		return p, nil
	}
	tok := s.requests.begin(keyProfile)
	s.mu.Unlock()

	user, err := s.api.FetchProfile(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.requests.finish(keyProfile, tok, err) {
		return Profile{}, fmt.Errorf("fetch profile: %w", ErrSuperseded)
	}
	if err != nil {
		s.logger.Printf("fetch profile failed: %v", err)
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	s.profile = Profile{User: user, Role: forum.ParseRole(user.Role)}
	s.has = true
	s.tokenHash = hash
	return s.profile, nil
}

// SetProfile overwrites the cached user, e.g. after a confirmed profile edit.
func (s *ProfileStore) SetProfile(user forum.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = Profile{User: user, Role: forum.ParseRole(user.Role)}
	s.has = true
}

// ResetUser forgets the profile and returns the store to Idle.
func (s *ProfileStore) ResetUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = Profile{}
	s.has = false
	s.tokenHash = ""
	s.requests.reset()
}

// Profile returns the cached profile.
func (s *ProfileStore) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.has
}

// Role returns the cached role, RoleUser when no profile is loaded.
func (s *ProfileStore) Role() forum.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has {
		return forum.RoleUser
	}
	return s.profile.Role
}

// UserID returns the id of the cached user.
func (s *ProfileStore) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.User.ID, s.has && s.profile.User.ID != ""
}

// Status reports the profile fetch status.
func (s *ProfileStore) Status() FetchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests.state(keyProfile)
}

// Export returns the state persisted under the profile-storage slot.
func (s *ProfileStore) Export() ProfileSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ProfileSnapshot{Profile: s.profile, HasProfile: s.has, TokenHash: s.tokenHash}
}

// Restore rehydrates a persisted profile if it belongs to token. A profile
// saved for another token is discarded. It reports whether a profile was
// restored.
func (s *ProfileStore) Restore(snap ProfileSnapshot, token string) bool {
	if !snap.HasProfile || snap.TokenHash == "" || snap.TokenHash != Fingerprint(token) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = Profile{User: snap.Profile.User, Role: forum.ParseRole(snap.Profile.User.Role)}
	s.has = true
	s.tokenHash = snap.TokenHash
	return true
}

// Fingerprint returns the hex sha256 of token, used to tie saved state to a
// session without storing the token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

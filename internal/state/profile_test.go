package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
)

type fakeProfileAPI struct {
	mu    sync.Mutex
	users map[string]forum.User
	err   error
	calls int
}

func (f *fakeProfileAPI) FetchProfile(_ context.Context, token string) (forum.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return forum.User{}, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return forum.User{}, &forum.APIError{Status: 401}
	}
	return u, nil
}

func TestProfileStore_Lifecycle(t *testing.T) {
	api := &fakeProfileAPI{users: map[string]forum.User{
		"tok-a": {ID: "u1", Username: "ana", Role: "ADMIN"},
		"tok-b": {ID: "u2", Username: "bia", Role: "USER"},
	}}
	s := NewProfileStore(api, quietLogger)

	if st := s.Status(); st.Status != StatusIdle {
		t.Fatalf("initial status = %v, want idle", st.Status)
	}
	if _, ok := s.UserID(); ok {
		t.Fatalf("UserID() ok before load")
	}

	p, err := s.GetProfile(context.Background(), "tok-a")
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if p.User.Username != "ana" || p.Role != forum.RoleAdmin || s.Role() != forum.RoleAdmin {
		t.Fatalf("profile = %#v, want admin ana", p)
	}
	if s.Status().Status != StatusLoaded {
		t.Fatalf("status = %v, want loaded", s.Status().Status)
	}

	if _, err := s.GetProfile(context.Background(), "tok-a"); err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if api.calls != 1 {
		t.Fatalf("same token fetched %d times, want 1", api.calls)
	}

	p, err = s.GetProfile(context.Background(), "tok-b")
	if err != nil {
		t.Fatalf("GetProfile(tok-b) returned error: %v", err)
	}
	if p.User.ID != "u2" || p.Role != forum.RoleUser || api.calls != 2 {
		t.Fatalf("new token should refetch: %#v calls=%d", p, api.calls)
	}

	s.ResetUser()
	if _, ok := s.Profile(); ok {
		t.Fatalf("Profile() ok after reset")
	}
	if s.Status().Status != StatusIdle || s.Role() != forum.RoleUser {
		t.Fatalf("after reset status=%v role=%v", s.Status().Status, s.Role())
	}
}

func TestProfileStore_FailureKeepsStaleProfile(t *testing.T) {
	api := &fakeProfileAPI{users: map[string]forum.User{"tok": {ID: "u1", Username: "ana"}}}
	s := NewProfileStore(api, quietLogger)
	if _, err := s.GetProfile(context.Background(), "tok"); err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}

	boom := errors.New("timeout")
	api.err = boom
	if _, err := s.GetProfile(context.Background(), "tok-2"); !errors.Is(err, boom) {
		t.Fatalf("GetProfile error = %v, want timeout", err)
	}
	p, ok := s.Profile()
	if !ok || p.User.Username != "ana" {
		t.Fatalf("stale profile not kept: %#v %v", p, ok)
	}
	st := s.Status()
	if st.Status != StatusError || !errors.Is(st.Err, boom) {
		t.Fatalf("status = %#v, want error", st)
	}
}

func TestProfileStore_SetProfileAndPermissions(t *testing.T) {
	s := NewProfileStore(&fakeProfileAPI{}, quietLogger)
	s.SetProfile(forum.User{ID: "u1", Username: "ana", Role: "USER"})

	p, ok := s.Profile()
	if !ok {
		t.Fatalf("Profile() ok = false after SetProfile")
	}
	if !p.CanModify(forum.Post{UserID: "u1"}) || p.CanModify(forum.Post{UserID: "u2"}) {
		t.Fatalf("owner permissions wrong")
	}
	admin := Profile{User: forum.User{ID: "root"}, Role: forum.RoleAdmin}
	if !admin.CanModify(forum.Post{UserID: "u2"}) {
		t.Fatalf("admin should modify any post")
	}
	if (Profile{}).CanModify(forum.Post{}) {
		t.Fatalf("empty profile should not modify ownerless post")
	}
}

func TestProfileStore_RestoreRequiresSameToken(t *testing.T) {
	api := &fakeProfileAPI{users: map[string]forum.User{"tok": {ID: "u1", Role: "ADMIN"}}}
	s := NewProfileStore(api, quietLogger)
	if _, err := s.GetProfile(context.Background(), "tok"); err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	snap := s.Export()
	if snap.TokenHash == "" || snap.TokenHash == "tok" {
		t.Fatalf("token hash = %q, want fingerprint", snap.TokenHash)
	}

	other := NewProfileStore(api, quietLogger)
	if other.Restore(snap, "different") {
		t.Fatalf("Restore accepted a profile saved for another token")
	}
	if !other.Restore(snap, "tok") {
		t.Fatalf("Restore rejected matching token")
	}
	if id, ok := other.UserID(); !ok || id != "u1" || other.Role() != forum.RoleAdmin {
		t.Fatalf("restored profile = %q %v %v", id, ok, other.Role())
	}
}

package state

import (
	"fmt"
	"slices"
	"sync"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
)

// CommentSnapshot is the persisted form of a CommentStore.
type CommentSnapshot struct {
	Comments    []forum.Comment `json:"comments"`
	HasComments bool            `json:"hasComments"`
	TokenHash   string          `json:"tokenHash,omitempty"` // see PostSnapshot.TokenHash
}

// CommentStore caches a comment collection. It performs no network calls:
// callers run the remote operation first and then apply the result here.
//
// After every change OnChange, when set, is called once per affected post id
// with that post's comments, outside the store lock.
type CommentStore struct {
	OnChange func(postID string, comments []forum.Comment)

	mu       sync.RWMutex
	comments []forum.Comment
	set      bool
}

// SetComments replaces the cache, newest comment first.
func (s *CommentStore) SetComments(comments []forum.Comment) {
	next := slices.Clone(comments)
	if next == nil {
		next = []forum.Comment{}
	}
	SortComments(next)

	s.mu.Lock()
	affected := postIDs(s.comments, next)
	s.comments = next
	s.set = true
	s.mu.Unlock()

	s.notify(affected...)
}

// Comments returns the cached comments; ok is false when never set.
func (s *CommentStore) Comments() (comments []forum.Comment, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.comments), s.set
}

// CommentsFor returns the cached comments of one post.
func (s *CommentStore) CommentsFor(postID string) []forum.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterPost(s.comments, postID)
}

// ResetComments clears the cache.
func (s *CommentStore) ResetComments() {
	s.mu.Lock()
	affected := postIDs(s.comments, nil)
	s.comments = nil
	s.set = false
	s.mu.Unlock()

	s.notify(affected...)
}

// AddComment inserts a confirmed comment, keeping newest first.
func (s *CommentStore) AddComment(c forum.Comment) {
	s.mu.Lock()
	next := append(slices.Clone(s.comments), c)
	SortComments(next)
	s.comments = next
	s.set = true
	s.mu.Unlock()

	s.notify(c.PostID)
}

// UpdateComment shallow-merges patch into the comment with the same id.
func (s *CommentStore) UpdateComment(patch forum.CommentPatch) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.comments, func(c forum.Comment) bool { return c.ID == patch.ID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update comment %s: %w", patch.ID, ErrNotCached)
	}
	next := slices.Clone(s.comments)
	next[i] = patch.Apply(next[i])
	s.comments = next
	postID := next[i].PostID
	s.mu.Unlock()

	s.notify(postID)
	return nil
}

// RemoveComment drops the comment with id.
func (s *CommentStore) RemoveComment(id string) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.comments, func(c forum.Comment) bool { return c.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("remove comment %s: %w", id, ErrNotCached)
	}
	postID := s.comments[i].PostID
	next := slices.Clone(s.comments)
	s.comments = slices.Delete(next, i, i+1)
	s.mu.Unlock()

	s.notify(postID)
	return nil
}

// Export returns the state persisted under the comment slot.
func (s *CommentStore) Export() CommentSnapshot {
	comments, ok := s.Comments()
	return CommentSnapshot{Comments: comments, HasComments: ok}
}

// Restore replaces the cache with previously exported state without
// notifying OnChange.
func (s *CommentStore) Restore(snap CommentSnapshot) {
	next := slices.Clone(snap.Comments)
	SortComments(next)
	if snap.HasComments && next == nil {
		next = []forum.Comment{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = next
	s.set = snap.HasComments
}

func (s *CommentStore) notify(postIDs ...string) {
	if s.OnChange == nil {
		return
	}
	for _, id := range postIDs {
		s.OnChange(id, s.CommentsFor(id))
	}
}

func filterPost(comments []forum.Comment, postID string) []forum.Comment {
	out := []forum.Comment{}
	for _, c := range comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

// postIDs lists the distinct post ids across both lists in first-seen order.
func postIDs(a, b []forum.Comment) []string {
	var ids []string
	for _, list := range [][]forum.Comment{a, b} {
		for _, c := range list {
			if !slices.Contains(ids, c.PostID) {
				ids = append(ids, c.PostID)
			}
		}
	}
	return ids
}

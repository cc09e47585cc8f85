package state

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
)

// PostAPI is the subset of the forum API the post store calls.
type PostAPI interface {
	FetchPostsByUser(ctx context.Context, userID string) ([]forum.Post, error)
	FetchPost(ctx context.Context, id string) (forum.PostWithComments, error)
	UpdatePost(ctx context.Context, id string, patch forum.PostPatch) error
	DeletePost(ctx context.Context, id string) error
	Like(ctx context.Context, payload forum.VotePayload) error
	Dislike(ctx context.Context, payload forum.VotePayload) error
}

// Cache keys reported by PostStore.Status.
const (
	KeyPosts = "posts"
	KeyPost  = "post"
)

// PostSnapshot is an immutable view of the post caches. The list and the
// detail post are independent copies; a post may appear in both.
type PostSnapshot struct {
	Owner    string                 `json:"owner,omitempty"`
	Posts    []forum.Post           `json:"posts"`
	HasPosts bool                   `json:"hasPosts"`
	Post     forum.PostWithComments `json:"post"`
	HasPost  bool                   `json:"hasPost"`
	// TokenHash is the Fingerprint of the session token the snapshot was
	// saved under. The store itself never sets or reads it.
	TokenHash string `json:"tokenHash,omitempty"`
}

func (s PostSnapshot) clone() PostSnapshot {
	s.Posts = clonePosts(s.Posts)
	s.Post = s.Post.Clone()
	return s
}

// PostStoreOptions configure a PostStore.
type PostStoreOptions struct {
	Logger *log.Logger
	// Viewer returns the authenticated user id sent with votes.
	Viewer func() (string, bool)
	Retry  RetryPolicy
}

// PostStore caches the post list of one owner and the currently viewed post.
// It is safe for concurrent use; mutations of the same post id run one at a
// time.
type PostStore struct {
	api    PostAPI
	logger *log.Logger
	viewer func() (string, bool)
	retry  RetryPolicy

	locks keyedMutex

	mu       sync.RWMutex
	snapshot PostSnapshot
	requests requests
	// disliked records confirmed dislikes per viewer; likes are carried by
	// LikedByCurrentUser.
	disliked map[voteKey]bool
}

type voteKey struct{ viewer, post string }

// NewPostStore builds an empty store backed by api.
func NewPostStore(api PostAPI, opts PostStoreOptions) *PostStore {
	s := &PostStore{
		api:    api,
		logger: opts.Logger,
		viewer: opts.Viewer,
		retry:  opts.Retry,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.retry.Attempts == 0 {
		s.retry = DefaultRetry
	}
	return s
}

// Snapshot returns a copy of both caches.
func (s *PostStore) Snapshot() PostSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.clone()
}

// Posts returns the cached list. ok is false when the list was never
// populated, which differs from a fetched empty list.
func (s *PostStore) Posts() (posts []forum.Post, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePosts(s.snapshot.Posts), s.snapshot.HasPosts
}

// Post returns the cached detail post.
func (s *PostStore) Post() (forum.PostWithComments, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Post.Clone(), s.snapshot.HasPost
}

// Status reports the fetch status of KeyPosts or KeyPost.
func (s *PostStore) Status(key string) FetchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests.state(key)
}

// SetPosts fetches the posts of ownerID newest first and replaces the list.
// On failure the cached list is kept and the error is returned and recorded
// in Status(KeyPosts).
func (s *PostStore) SetPosts(ctx context.Context, ownerID string) ([]forum.Post, error) {
	s.mu.Lock()
	tok := s.requests.begin(KeyPosts)
	s.mu.Unlock()

	posts, err := s.api.FetchPostsByUser(ctx, ownerID)
	if err == nil {
		posts = clonePosts(posts)
		if posts == nil {
			posts = []forum.Post{}
		}
		clampScores(posts)
		SortPosts(posts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.requests.finish(KeyPosts, tok, err) {
		return nil, fmt.Errorf("fetch posts of %s: %w", ownerID, ErrSuperseded)
	}
	if err != nil {
		s.logger.Printf("fetch posts of %s failed: %v", ownerID, err)
		return nil, fmt.Errorf("fetch posts of %s: %w", ownerID, err)
	}
	next := s.snapshot
	next.Owner = ownerID
	next.Posts = posts
	next.HasPosts = true
	s.snapshot = next
	return clonePosts(posts), nil
}

// GetPostByID fetches a post with its comments, newest comment first, and
// replaces the detail cache wholesale. A response to a request that has since
// been superseded is dropped and ErrSuperseded returned.
func (s *PostStore) GetPostByID(ctx context.Context, id string) (forum.PostWithComments, error) {
	s.mu.Lock()
	tok := s.requests.begin(KeyPost)
	s.mu.Unlock()

	post, err := s.api.FetchPost(ctx, id)
	if err == nil {
		post = post.Clone()
		post.Score = ClampScore(post.Score)
		SortComments(post.Comments)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.requests.finish(KeyPost, tok, err) {
		return forum.PostWithComments{}, fmt.Errorf("fetch post %s: %w", id, ErrSuperseded)
	}
	if err != nil {
		s.logger.Printf("fetch post %s failed: %v", id, err)
		return forum.PostWithComments{}, fmt.Errorf("fetch post %s: %w", id, err)
	}
	next := s.snapshot
	next.Post = post
	next.HasPost = true
	s.snapshot = next
	return post.Clone(), nil
}

// UpdatePost sends patch to the server. Only after the server accepts it is
// the list entry merged and the post re-fetched into the detail cache. The
// re-fetch replaces the detail even when another post was being viewed. A
// rejected edit returns the *forum.ValidationError untouched in the chain.
func (s *PostStore) UpdatePost(ctx context.Context, id string, patch forum.PostPatch) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.api.UpdatePost(ctx, id, patch); err != nil {
		return fmt.Errorf("update post %s: %w", id, err)
	}

	s.mu.Lock()
	s.patchListLocked(id, patch.Apply)
	s.mu.Unlock()

	if _, err := s.GetPostByID(ctx, id); err != nil && !errors.Is(err, ErrSuperseded) {
		// The edit is stored server-side; the stale detail is visible through
		// Status(KeyPost).
		s.logger.Printf("refresh post %s after update failed: %v", id, err)
	}
	return nil
}

// RemovePost deletes a post remotely and then drops it from the caches. On
// failure the caches are unchanged and the error is returned.
func (s *PostStore) RemovePost(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.api.DeletePost(ctx, id); err != nil {
		s.logger.Printf("delete post %s failed: %v", id, err)
		return fmt.Errorf("delete post %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.snapshot
	if next.HasPosts {
		next.Posts = slices.DeleteFunc(clonePosts(next.Posts), func(p forum.Post) bool { return p.ID == id })
	}
	if next.HasPost && next.Post.ID == id {
		next.Post = forum.PostWithComments{}
		next.HasPost = false
	}
	s.snapshot = next
	return nil
}

// IncrementCommentCount bumps the comment count of a cached post by one. It
// makes no server call; call it only after a comment was confirmed created.
func (s *PostStore) IncrementCommentCount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.patchLocked(id, func(p forum.Post) forum.Post {
		p.CommentCount++
		return p
	}) {
		return fmt.Errorf("increment comment count of %s: %w", id, ErrNotCached)
	}
	return nil
}

// UpdatePostScore overwrites the score of a cached post, clamped at zero.
func (s *PostStore) UpdatePostScore(id string, score int) error {
	score = ClampScore(score)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.patchLocked(id, func(p forum.Post) forum.Post {
		p.Score = score
		return p
	}) {
		return fmt.Errorf("update score of %s: %w", id, ErrNotCached)
	}
	return nil
}

// LikePost adds one to the score and marks the post liked before asking the
// server. If the server never accepts the like, the change is rolled back.
// Liking a post the viewer already likes changes nothing and sends nothing.
func (s *PostStore) LikePost(ctx context.Context, id string) error {
	return s.vote(ctx, "like", id, +1, true, s.api.Like)
}

// DislikePost subtracts one from the score, clamped at zero, and clears the
// liked flag, with the same rollback as LikePost. A repeated dislike by the
// same viewer is a no-op.
func (s *PostStore) DislikePost(ctx context.Context, id string) error {
	return s.vote(ctx, "dislike", id, -1, false, s.api.Dislike)
}

// voteMark records score and flag of a post in both caches.
type voteMark struct {
	inList, inDetail       bool
	listScore, detailScore int
	listLiked, detailLiked bool
}

func (s *PostStore) markLocked(id string) voteMark {
	var m voteMark
	if i := s.indexLocked(id); i >= 0 {
		p := s.snapshot.Posts[i]
		m.inList, m.listScore, m.listLiked = true, p.Score, p.LikedByCurrentUser
	}
	if s.snapshot.HasPost && s.snapshot.Post.ID == id {
		p := s.snapshot.Post
		m.inDetail, m.detailScore, m.detailLiked = true, p.Score, p.LikedByCurrentUser
	}
	return m
}

func (s *PostStore) vote(ctx context.Context, kind, id string, delta int, liked bool, send func(context.Context, forum.VotePayload) error) error {
	userID, ok := s.viewerID()
	if !ok {
		return fmt.Errorf("%s post %s: %w", kind, id, ErrUnauthenticated)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	key := voteKey{viewer: userID, post: id}

	s.mu.Lock()
	before := s.markLocked(id)
	if !before.inList && !before.inDetail {
		s.mu.Unlock()
		return fmt.Errorf("%s post %s: %w", kind, id, ErrNotCached)
	}
	if s.currentVoteLocked(key, before) == delta {
		s.mu.Unlock()
		return nil
	}
	s.patchLocked(id, func(p forum.Post) forum.Post {
		p.Score = ClampScore(p.Score + delta)
		p.LikedByCurrentUser = liked
		return p
	})
	after := s.markLocked(id)
	s.mu.Unlock()

	payload := forum.VotePayload{PostID: id, UserID: userID}
	err := s.retry.do(ctx, func(ctx context.Context) error { return send(ctx, payload) })
	if err == nil {
		s.mu.Lock()
		if delta < 0 {
			if s.disliked == nil {
				s.disliked = make(map[voteKey]bool)
			}
			s.disliked[key] = true
		} else {
			delete(s.disliked, key)
		}
		s.mu.Unlock()
		return nil
	}

	s.logger.Printf("%s post %s failed, rolling back: %v", kind, id, err)
	s.mu.Lock()
	s.rollbackLocked(id, before, after)
	s.mu.Unlock()
	return fmt.Errorf("%s post %s: %w", kind, id, err)
}

// currentVoteLocked returns the viewer's standing vote on a post: +1 when a
// cache shows it liked, -1 after a confirmed dislike, 0 otherwise.
func (s *PostStore) currentVoteLocked(key voteKey, m voteMark) int {
	switch {
	case (m.inList && m.listLiked) || (m.inDetail && m.detailLiked):
		return +1
	case s.disliked[key]:
		return -1
	default:
		return 0
	}
}

// rollbackLocked restores the pre-vote values in every cache that still shows
// the optimistic ones. A cache refreshed from the server meanwhile is newer
// than both and is left alone.
func (s *PostStore) rollbackLocked(id string, before, after voteMark) {
	now := s.markLocked(id)
	next := s.snapshot
	if now.inList && after.inList && now.listScore == after.listScore && now.listLiked == after.listLiked {
		i := s.indexLocked(id)
		next.Posts = clonePosts(next.Posts)
		next.Posts[i].Score, next.Posts[i].LikedByCurrentUser = before.listScore, before.listLiked
	}
	if now.inDetail && after.inDetail && now.detailScore == after.detailScore && now.detailLiked == after.detailLiked {
		next.Post = next.Post.Clone()
		next.Post.Score, next.Post.LikedByCurrentUser = before.detailScore, before.detailLiked
	}
	s.snapshot = next
}

// ApplyComments replaces the embedded comments of the detail post when it is
// postID. The detail copy is a read-only projection of the comment store.
func (s *PostStore) ApplyComments(postID string, comments []forum.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snapshot.HasPost || s.snapshot.Post.ID != postID {
		return
	}
	next := s.snapshot
	next.Post = next.Post.Clone()
	next.Post.Comments = slices.Clone(comments)
	SortComments(next.Post.Comments)
	s.snapshot = next
}

// ResetPosts clears both caches and their statuses.
func (s *PostStore) ResetPosts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = PostSnapshot{}
	s.requests.reset()
	clear(s.disliked)
}

// Export returns the state persisted under the post-storage slot.
func (s *PostStore) Export() PostSnapshot {
	return s.Snapshot()
}

// Restore replaces the caches with previously exported state. Fetch
// statuses stay Idle; restored data has not been confirmed this session.
func (s *PostStore) Restore(snap PostSnapshot) {
	snap = snap.clone()
	snap.TokenHash = ""
	clampScores(snap.Posts)
	snap.Post.Score = ClampScore(snap.Post.Score)
	SortPosts(snap.Posts)
	SortComments(snap.Post.Comments)
	if snap.HasPosts && snap.Posts == nil {
		snap.Posts = []forum.Post{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	clear(s.disliked)
}

func (s *PostStore) viewerID() (string, bool) {
	if s.viewer == nil {
		return "", false
	}
	id, ok := s.viewer()
	return id, ok && id != ""
}

func (s *PostStore) indexLocked(id string) int {
	if !s.snapshot.HasPosts {
		return -1
	}
	return slices.IndexFunc(s.snapshot.Posts, func(p forum.Post) bool { return p.ID == id })
}

// patchLocked applies fn to the post with id in both caches, replacing the
// snapshot. It reports whether any cache held the id.
func (s *PostStore) patchLocked(id string, fn func(forum.Post) forum.Post) bool {
	found := s.patchListLocked(id, fn)
	if s.snapshot.HasPost && s.snapshot.Post.ID == id {
		next := s.snapshot
		next.Post = next.Post.Clone()
		next.Post.Post = fn(next.Post.Post)
		s.snapshot = next
		found = true
	}
	return found
}

func (s *PostStore) patchListLocked(id string, fn func(forum.Post) forum.Post) bool {
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	next := s.snapshot
	next.Posts = clonePosts(next.Posts)
	next.Posts[i] = fn(next.Posts[i])
	s.snapshot = next
	return true
}

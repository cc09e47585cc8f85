package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/config"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/persist"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/state"
)

// Options configure a Session.
type Options struct {
	ConfigPath string         // empty uses ~/.config/uniespoverflow/config.toml
	Config     *config.Config // already loaded config; overrides ConfigPath
	Token      string // session token; may be set later with SignIn
	Logger     *log.Logger
}

// Session wires the forum client, the three stores and the persistence
// backend for one running client.
type Session struct {
	cfg     config.Config
	api     *sessionClient
	backend persist.Backend
	logger  *log.Logger

	posts    *state.PostStore
	comments *state.CommentStore
	profile  *state.ProfileStore
}

// Open loads the configuration, builds the stores and rehydrates them from
// the configured backend.
func Open(ctx context.Context, opts Options) (*Session, error) {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "overflow: ", log.LstdFlags)
	}

	client, err := forum.NewClient(cfg.APIURL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("init forum client: %w", err)
	}

	backend, err := persist.Open(ctx, persist.Options{
		Backend: cfg.Storage.Backend,
		Dir:     cfg.StateDir,
		DSN:     cfg.Storage.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	s := &Session{
		cfg:     cfg,
		api:     newSessionClient(client.WithToken(opts.Token), opts.Token),
		backend: backend,
		logger:  logger,
	}
	s.profile = state.NewProfileStore(s.api, logger)
	s.posts = state.NewPostStore(s.api, state.PostStoreOptions{
		Logger: logger,
		Viewer: s.profile.UserID,
		Retry:  state.RetryPolicy{Attempts: cfg.LikeRetries, Backoff: state.DefaultRetry.Backoff},
	})
	s.comments = &state.CommentStore{OnChange: s.posts.ApplyComments}

	s.rehydrate(ctx)
	return s, nil
}

// Config returns the loaded configuration.
func (s *Session) Config() config.Config { return s.cfg }

// Posts returns the post store.
func (s *Session) Posts() *state.PostStore { return s.posts }

// Comments returns the comment store.
func (s *Session) Comments() *state.CommentStore { return s.comments }

// Profile returns the profile store.
func (s *Session) Profile() *state.ProfileStore { return s.profile }

// SignIn switches the session token and loads its profile. Switching to a
// different token drops the cached posts and comments of the previous one.
func (s *Session) SignIn(ctx context.Context, token string) (state.Profile, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return state.Profile{}, fmt.Errorf("sign in: %w", state.ErrUnauthenticated)
	}
	if s.api.swap(token) {
		s.posts.ResetPosts()
		s.comments.ResetComments()
	}
	profile, err := s.profile.GetProfile(ctx, token)
	if err != nil {
		return state.Profile{}, fmt.Errorf("sign in: %w", err)
	}
	return profile, nil
}

// ListPosts loads the posts of ownerID, or of the signed-in user when
// ownerID is empty.
func (s *Session) ListPosts(ctx context.Context, ownerID string) ([]forum.Post, error) {
	if ownerID == "" {
		id, ok := s.profile.UserID()
		if !ok {
			return nil, fmt.Errorf("list posts: %w", state.ErrUnauthenticated)
		}
		ownerID = id
	}
	return s.posts.SetPosts(ctx, ownerID)
}

// OpenPost loads a post and seeds the comment store with its comments.
func (s *Session) OpenPost(ctx context.Context, id string) (forum.PostWithComments, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return forum.PostWithComments{}, err
	}
	comments := make([]forum.Comment, len(post.Comments))
	for i, c := range post.Comments {
		if c.PostID == "" {
			c.PostID = post.ID
		}
		comments[i] = c
	}
	s.comments.SetComments(comments)

	if current, ok := s.posts.Post(); ok && current.ID == post.ID {
		return current, nil
	}
	return post, nil
}

// AddComment creates a comment on the server and, once confirmed, bumps the
// post's comment count and inserts the comment into the caches.
func (s *Session) AddComment(ctx context.Context, postID, body string) (forum.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return forum.Comment{}, &forum.ValidationError{Messages: []string{"comment must not be empty"}}
	}
	created, err := s.api.current().CreateComment(ctx, postID, forum.NewComment{Comment: body})
	if err != nil {
		return forum.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	if err := s.posts.IncrementCommentCount(postID); err != nil && !errors.Is(err, state.ErrNotCached) {
		s.logger.Printf("increment comment count failed: %v", err)
	}
	s.comments.AddComment(created)
	return created, nil
}

// EditComment updates a comment on the server, then in the caches.
func (s *Session) EditComment(ctx context.Context, id, body string) error {
	patch := forum.CommentPatch{ID: id, Comment: body}
	if _, err := s.api.current().UpdateComment(ctx, patch); err != nil {
		return fmt.Errorf("edit comment: %w", err)
	}
	if err := s.comments.UpdateComment(patch); err != nil && !errors.Is(err, state.ErrNotCached) {
		return err
	}
	return nil
}

// DeleteComment deletes a comment on the server, then from the caches.
func (s *Session) DeleteComment(ctx context.Context, id string) error {
	if err := s.api.current().DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if err := s.comments.RemoveComment(id); err != nil && !errors.Is(err, state.ErrNotCached) {
		return err
	}
	return nil
}

// Save writes every store to its slot. Posts and comments are stamped with
// the token fingerprint so another session never inherits them.
func (s *Session) Save(ctx context.Context) error {
	hash := s.tokenHash()
	posts := s.posts.Export()
	posts.TokenHash = hash
	comments := s.comments.Export()
	comments.TokenHash = hash
	return errors.Join(
		persist.SaveJSON(ctx, s.backend, persist.SlotPosts, posts),
		persist.SaveJSON(ctx, s.backend, persist.SlotComments, comments),
		persist.SaveJSON(ctx, s.backend, persist.SlotProfile, s.profile.Export()),
	)
}

// Logout forgets the token, clears every store and deletes the saved slots.
func (s *Session) Logout(ctx context.Context) error {
	s.api.swap("")
	s.posts.ResetPosts()
	s.comments.ResetComments()
	s.profile.ResetUser()

	var errs []error
	for _, slot := range persist.Slots {
		if err := s.backend.Delete(ctx, slot); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", slot, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the storage backend.
func (s *Session) Close() error {
	return s.backend.Close()
}

func (s *Session) tokenHash() string {
	token := s.api.token()
	if token == "" {
		return ""
	}
	return state.Fingerprint(token)
}

// rehydrate restores the slots saved under the current token. Slots saved
// for another token, or with no token, are ignored.
func (s *Session) rehydrate(ctx context.Context) {
	hash := s.tokenHash()

	var posts state.PostSnapshot
	if s.load(ctx, persist.SlotPosts, &posts) {
		if hash != "" && posts.TokenHash == hash {
			s.posts.Restore(posts)
		} else {
			s.logger.Printf("discarding saved posts of another session")
		}
	}
	var comments state.CommentSnapshot
	if s.load(ctx, persist.SlotComments, &comments) {
		if hash != "" && comments.TokenHash == hash {
			s.comments.Restore(comments)
		} else {
			s.logger.Printf("discarding saved comments of another session")
		}
	}
	var profile state.ProfileSnapshot
	if s.load(ctx, persist.SlotProfile, &profile) {
		if token := s.api.token(); token != "" && !s.profile.Restore(profile, token) {
			s.logger.Printf("discarding saved profile of another session")
		}
	}
}

func (s *Session) load(ctx context.Context, slot string, v any) bool {
	err := persist.LoadJSON(ctx, s.backend, slot, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, persist.ErrSlotEmpty):
	default:
		s.logger.Printf("restore %s failed: %v", slot, err)
	}
	return false
}

package app

import (
	"context"
	"sync"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
)

// sessionClient routes store calls to the client of the current token, so
// SignIn and Logout can switch tokens without rebuilding the stores.
type sessionClient struct {
	base *forum.Client

	mu  sync.RWMutex
	cli *forum.Client
	tok string
}

var _ forum.API = (*sessionClient)(nil)

func newSessionClient(client *forum.Client, token string) *sessionClient {
	return &sessionClient{base: client, cli: client, tok: token}
}

func (c *sessionClient) current() *forum.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cli
}

func (c *sessionClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tok
}

// swap installs token and reports whether it changed.
func (c *sessionClient) swap(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == c.tok {
		return false
	}
	c.tok = token
	c.cli = c.base.WithToken(token)
	return true
}

func (c *sessionClient) FetchPostsByUser(ctx context.Context, userID string) ([]forum.Post, error) {
	return c.current().FetchPostsByUser(ctx, userID)
}

func (c *sessionClient) FetchPost(ctx context.Context, id string) (forum.PostWithComments, error) {
	return c.current().FetchPost(ctx, id)
}

func (c *sessionClient) UpdatePost(ctx context.Context, id string, patch forum.PostPatch) error {
	return c.current().UpdatePost(ctx, id, patch)
}

func (c *sessionClient) DeletePost(ctx context.Context, id string) error {
	return c.current().DeletePost(ctx, id)
}

func (c *sessionClient) Like(ctx context.Context, payload forum.VotePayload) error {
	return c.current().Like(ctx, payload)
}

func (c *sessionClient) Dislike(ctx context.Context, payload forum.VotePayload) error {
	return c.current().Dislike(ctx, payload)
}

func (c *sessionClient) CreateComment(ctx context.Context, postID string, body forum.NewComment) (forum.Comment, error) {
	return c.current().CreateComment(ctx, postID, body)
}

func (c *sessionClient) UpdateComment(ctx context.Context, patch forum.CommentPatch) (forum.Comment, error) {
	return c.current().UpdateComment(ctx, patch)
}

func (c *sessionClient) DeleteComment(ctx context.Context, id string) error {
	return c.current().DeleteComment(ctx, id)
}

func (c *sessionClient) FetchProfile(ctx context.Context, token string) (forum.User, error) {
	return c.current().FetchProfile(ctx, token)
}

package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API is the full set of backend operations the client stores depend on.
// It is implemented by *Client and can be faked in tests.
type API interface {
	FetchPostsByUser(ctx context.Context, userID string) ([]Post, error)
	FetchPost(ctx context.Context, id string) (PostWithComments, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch) error
	DeletePost(ctx context.Context, id string) error
	Like(ctx context.Context, payload VotePayload) error
	Dislike(ctx context.Context, payload VotePayload) error
	CreateComment(ctx context.Context, postID string, body NewComment) (Comment, error)
	UpdateComment(ctx context.Context, patch CommentPatch) (Comment, error)
	DeleteComment(ctx context.Context, id string) error
	FetchProfile(ctx context.Context, token string) (User, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the forum REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
}

const (
	defaultBaseURL   = "http://127.0.0.1:3000"
	defaultUserAgent = "uniespoverflow/0.1"
	defaultTimeout   = 10 * time.Second
	maxErrorBody     = 64 << 10
)

// NewClient builds a Client for the API rooted at baseURL. A zero timeout uses
// the default.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// WithToken returns a copy of the client that authenticates with token.
// The copy shares the underlying connection pool.
func (c *Client) WithToken(token string) *Client {
	dup := *c
	dup.token = strings.TrimSpace(token)
	return &dup
}

// FetchPostsByUser lists the posts owned by userID.
func (c *Client) FetchPostsByUser(ctx context.Context, userID string) ([]Post, error) {
	if err := validateID(userID); err != nil {
		return nil, err
	}
	var posts []Post
	if err := c.do(ctx, http.MethodGet, c.token, nil, &posts, "posts", "user", userID); err != nil {
		return nil, err
	}
	return posts, nil
}

// FetchPost retrieves a post with its comment thread.
func (c *Client) FetchPost(ctx context.Context, id string) (PostWithComments, error) {
	if err := validateID(id); err != nil {
		return PostWithComments{}, err
	}
	var post PostWithComments
	if err := c.do(ctx, http.MethodGet, c.token, nil, &post, "posts", id); err != nil {
		return PostWithComments{}, err
	}
	return post, nil
}

// UpdatePost sends the edited fields of a post.
func (c *Client) UpdatePost(ctx context.Context, id string, patch PostPatch) error {
	if err := validateID(id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, c.token, patch, nil, "posts", id)
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, c.token, nil, nil, "posts", id)
}

// Like records a like for payload.PostID on behalf of payload.UserID.
func (c *Client) Like(ctx context.Context, payload VotePayload) error {
	return c.vote(ctx, "like", payload)
}

// Dislike records a dislike for payload.PostID on behalf of payload.UserID.
func (c *Client) Dislike(ctx context.Context, payload VotePayload) error {
	return c.vote(ctx, "dislike", payload)
}

func (c *Client) vote(ctx context.Context, kind string, payload VotePayload) error {
	if err := validateID(payload.PostID); err != nil {
		return err
	}
	if strings.TrimSpace(payload.UserID) == "" {
		return fmt.Errorf("%s: user id required", kind)
	}
	return c.do(ctx, http.MethodPost, c.token, payload, nil, "posts", payload.PostID, kind)
}

// CreateComment adds a comment to a post and returns the stored comment.
func (c *Client) CreateComment(ctx context.Context, postID string, body NewComment) (Comment, error) {
	if err := validateID(postID); err != nil {
		return Comment{}, err
	}
	var created Comment
	if err := c.do(ctx, http.MethodPost, c.token, body, &created, "posts", postID, "comments"); err != nil {
		return Comment{}, err
	}
	if created.PostID == "" {
		created.PostID = postID
	}
	return created, nil
}

// UpdateComment edits the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, patch CommentPatch) (Comment, error) {
	if err := validateID(patch.ID); err != nil {
		return Comment{}, err
	}
	var updated Comment
	if err := c.do(ctx, http.MethodPut, c.token, NewComment{Comment: patch.Comment}, &updated, "comments", patch.ID); err != nil {
		return Comment{}, err
	}
	return updated, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, c.token, nil, nil, "comments", id)
}

// FetchProfile retrieves the profile that owns token.
func (c *Client) FetchProfile(ctx context.Context, token string) (User, error) {
	if strings.TrimSpace(token) == "" {
		return User{}, fmt.Errorf("session token required")
	}
	var user User
	if err := c.do(ctx, http.MethodGet, token, nil, &user, "user", "me"); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) do(ctx context.Context, method, token string, body, dest any, segments ...string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.JoinPath(segments...)
	path := "/" + strings.Join(segments, "/")

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		messages := NormalizeMessages(raw)
		if (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity) && len(messages) > 0 {
			return &ValidationError{Status: resp.StatusCode, Messages: messages}
		}
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Messages: messages}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

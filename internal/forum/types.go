package forum

import (
	"slices"
	"strings"
	"time"
)

// Role is the authorization level attached to a profile.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes a role string. Anything unrecognized is a standard user.
func ParseRole(value string) Role {
	if strings.EqualFold(strings.TrimSpace(value), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Post mirrors a post entry returned by the posts endpoints.
type Post struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Tags               []string `json:"tags"`
	Score              int      `json:"score"`
	CommentCount       int      `json:"commentCount"`
	LikedByCurrentUser bool     `json:"likedByCurrentUser"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
	UserID             string   `json:"user_id"`
	Username           string   `json:"username"`
}

// Clone returns a copy that shares no slices with p.
func (p Post) Clone() Post {
	p.Tags = slices.Clone(p.Tags)
	return p
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (p Post) ParsedCreatedAt() time.Time {
	return ParseTime(p.CreatedAt)
}

// PostWithComments is the detail view of a post with its comment thread.
type PostWithComments struct {
	Post
	Comments []Comment `json:"comment"`
}

// Clone returns a copy that shares no slices with p.
func (p PostWithComments) Clone() PostWithComments {
	p.Post = p.Post.Clone()
	p.Comments = slices.Clone(p.Comments)
	return p
}

// Comment is a single comment attached to a post.
type Comment struct {
	ID        string `json:"id"`
	PostID    string `json:"postId"`
	Username  string `json:"username"`
	Comment   string `json:"comment"`
	Score     int    `json:"score"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (c Comment) ParsedCreatedAt() time.Time {
	return ParseTime(c.CreatedAt)
}

// PostPatch carries the editable fields of a post. Nil fields are left
// untouched; a non-nil Tags pointing at an empty list clears the tags.
type PostPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Apply shallow-merges the patch into p and returns the result.
func (pp PostPatch) Apply(p Post) Post {
	p = p.Clone()
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Tags != nil {
		p.Tags = slices.Clone(*pp.Tags)
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (pp PostPatch) IsEmpty() bool {
	return pp.Title == nil && pp.Description == nil && pp.Tags == nil
}

// CommentPatch updates the body of the comment identified by ID.
type CommentPatch struct {
	ID      string `json:"id"`
	Comment string `json:"comment"`
}

// Apply shallow-merges the patch into c.
func (cp CommentPatch) Apply(c Comment) Comment {
	c.Comment = cp.Comment
	return c
}

// NewComment is the payload for creating a comment.
type NewComment struct {
	Comment string `json:"comment"`
}

// VotePayload is the body sent with like and dislike requests.
type VotePayload struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

// User is the authenticated profile payload.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTime parses the timestamp formats the backend emits. Invalid or empty
// values return the zero time.
func ParseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

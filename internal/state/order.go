package state

import (
	"slices"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
)

// SortPosts orders posts newest first by created_at. Equal or unparseable
// timestamps keep their relative order; unparseable ones sort last.
func SortPosts(posts []forum.Post) {
	slices.SortStableFunc(posts, func(a, b forum.Post) int {
		return b.ParsedCreatedAt().Compare(a.ParsedCreatedAt())
	})
}

// SortComments orders comments newest first by created_at, stably.
func SortComments(comments []forum.Comment) {
	slices.SortStableFunc(comments, func(a, b forum.Comment) int {
		return b.ParsedCreatedAt().Compare(a.ParsedCreatedAt())
	})
}

// ClampScore keeps a post score non-negative.
func ClampScore(score int) int {
	return max(score, 0)
}

// clampScores applies ClampScore to every post in place.
func clampScores(posts []forum.Post) {
	for i := range posts {
		posts[i].Score = ClampScore(posts[i].Score)
	}
}

func clonePosts(posts []forum.Post) []forum.Post {
	if posts == nil {
		return nil
	}
	dup := make([]forum.Post, len(posts))
	for i, p := range posts {
		dup[i] = p.Clone()
	}
	return dup
}

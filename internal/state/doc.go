// Package state provides the client-side caches that mirror the forum API.
//
// # Overview
//
// Three stores hold server-authoritative entities for the running session:
//
//   - PostStore: the post list of one owner and the currently viewed post
//     with its comments. All post mutations live here.
//   - CommentStore: a standalone comment collection with local-only CRUD.
//   - ProfileStore: the authenticated profile and its role, per session token.
//
// Callers (the UI collaborator, the CLI, the session refresher) read state
// through accessors that return copies and change it only through actions.
//
// # Snapshot Replacement
//
// Every store keeps its state as a value guarded by a sync.RWMutex. Actions
// build the next value by copy-and-patch and swap it in under the write lock;
// nothing shared with a reader is ever written in place:
//
//	s.mu.Lock()
//	next := s.snapshot
//	next.Posts = clonePosts(next.Posts)
//	next.Posts[i] = fn(next.Posts[i])
//	s.snapshot = next
//	s.mu.Unlock()
//
// The lock is never held across a network call.
//
// # Two Post Caches
//
// The list (Posts) and the detail (Post) are independent copies. An action
// that changes a post patches both when the id matches; updating the detail
// of X never touches list entry Y.
//
// # Optimistic Votes
//
// LikePost and DislikePost apply the score delta (clamped at zero) and the
// liked flag before the request is sent:
//
//	mark before ─> apply ±1 ─> mark after ─> send (retry transient) ─┬─> ok
//	                                                                  └─> restore before
//
// Transient failures are retried by RetryPolicy without re-applying the
// delta. When the vote finally fails, each cache that still shows the
// optimistic values gets its pre-vote values back; a cache refreshed from the
// server in the meantime is newer and is left alone. Votes need the viewer's
// user id; without one they fail with ErrUnauthenticated and change nothing.
// A like on a post the viewer already likes, or a second confirmed dislike,
// is a no-op and sends nothing.
//
// # Ordering and Races
//
//   - Mutations of the same post id are serialized by a per-id lock, so two
//     rapid likes apply and confirm one after the other.
//   - Each fetch takes a request token for its cache key. A response whose
//     token is no longer the latest is discarded with ErrSuperseded, so a slow
//     GetPostByID cannot overwrite a newer one.
//   - Status exposes Idle, Loading, Loaded or Error per cache key with the
//     last error, so a failed read is observable instead of silent.
//
// # Comment Projection
//
// The comments embedded in the detail post are a read-only projection of the
// CommentStore. The session sets CommentStore.OnChange to
// PostStore.ApplyComments; every comment change for the viewed post refreshes
// the embedded copy.
//
// # Sorting
//
// Posts and comments are ordered newest first by created_at using a stable
// sort. Timestamps are parsed by forum.ParseTime; unparseable values sort
// last and ties keep their server order.
//
// # Persistence
//
// Each store has Export and Restore. The session persists the exported values
// under the post-storage, comment and profile-storage slots and restores them
// at startup. Restored data keeps an Idle status until it is fetched again.
package state

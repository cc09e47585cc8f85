// Package app assembles a client session from configuration.
//
// # Startup Sequence
//
// Open performs these steps:
//
//  1. Load configuration from ~/.config/uniespoverflow/config.toml
//  2. Create the forum client with the configured base URL and timeout
//  3. Open the storage backend named in [storage]
//  4. Build the profile, post and comment stores and wire them together
//  5. Rehydrate each store from its slot
//
// # Store Wiring
//
// The post store reads the viewer id used for votes from the profile store,
// and the comment store pushes every change into the detail post through
// PostStore.ApplyComments. All three stores share one sessionClient, so
// SignIn and Logout switch the bearer token without rebuilding them.
//
// # Workflows
//
// Comment creation is confirmed before any cache changes:
//
//	CreateComment ─> IncrementCommentCount ─> CommentStore.AddComment ─> detail projection
//
// EditComment and DeleteComment run the remote call first and then apply the
// result locally. A failed remote call leaves every cache untouched.
//
// # Persistence
//
// Save writes the post-storage, comment and profile-storage slots. A saved
// profile is restored only when the session token matches the fingerprint it
// was saved with. Logout clears the stores and deletes the slots.
//
// # Background Refresh
//
// StartRefresher reloads the post list at the configured interval. After
// consecutive failures the wait doubles up to 30 seconds or four intervals,
// whichever is longer, and resets on the next success:
//
//	Interval 2s:  2s → 4s → 8s → 16s → 30s (max)
//	Interval 30s: 30s → 1m → 2m (max)
//
// A superseded fetch is not counted as a failure.
package app

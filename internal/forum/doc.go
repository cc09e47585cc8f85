// Package forum provides an HTTP client for the forum REST API.
//
// # Overview
//
// This package defines the API client the client-side stores use to read and
// mutate posts, comments, votes and the authenticated profile. It handles HTTP
// communication, JSON serialization, error normalization and the wire types.
//
// # Architecture
//
//   - client.go: HTTP client implementation and request/response handling
//   - types.go: Data structures mirroring the API schema, patch helpers
//   - errors.go: Error taxonomy and response message normalization
//
// # Client Usage
//
//	client, err := forum.NewClient("https://forum.example.com/api", 0)
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//	client = client.WithToken(token)
//
//	posts, err := client.FetchPostsByUser(ctx, userID)
//
// # API Endpoints
//
//   - GET    /posts/user/{userId}: posts owned by a user
//   - GET    /posts/{id}: post detail with its comment thread
//   - PUT    /posts/{id}: edit title, description, tags
//   - DELETE /posts/{id}: delete a post
//   - POST   /posts/{id}/like, /posts/{id}/dislike: votes, body {postId, userId}
//   - POST   /posts/{id}/comments: create a comment
//   - PUT    /comments/{id}, DELETE /comments/{id}: edit or delete a comment
//   - GET    /user/me: profile owning the bearer token
//
// Every id is checked to be UUID-shaped before a request is built, so a
// malformed id never reaches the network.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and, with a body, Content-Type
//   - Include User-Agent: uniespoverflow/0.1
//   - Carry a fresh X-Request-Id (UUID v4) for server-side correlation
//   - Send Authorization: Bearer <token> when the client has a token
//
// # Error Handling
//
//   - Network errors wrap ErrNetwork ("execute request: dial tcp: ...")
//   - 400/422 responses with messages become *ValidationError
//   - Any other 4xx/5xx becomes *APIError; 404s match ErrNotFound
//   - Malformed JSON yields "decode response: ..."
//
// IsRetryable separates transient failures (network, 5xx) from permanent
// ones. The client itself never retries; retry policy belongs to callers.
//
// # Thread Safety
//
// The Client is safe for concurrent use. WithToken returns a copy and never
// mutates the receiver.
package forum

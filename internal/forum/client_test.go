package forum

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

const (
	testPostID = "0f8fad5b-d9cb-469f-a165-70867728950e"
	testUserID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "127.0.0.1:3000" {
		t.Fatalf("default url = %q, want http://127.0.0.1:3000", u.String())
	}

	u, err = parseBaseURL("http://example.com:1234/api/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "/api" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

type recorded struct {
	method string
	path   string
	auth   string
	reqID  string
	body   string
}

func newRecordingServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			reqID:  r.Header.Get("X-Request-Id"),
			body:   string(raw),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func TestClient_EndpointsAndHeaders(t *testing.T) {
	t.Parallel()

	server, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/posts/user/"+testUserID:
			_ = json.NewEncoder(w).Encode([]Post{{ID: testPostID, Title: "hello", Tags: []string{"go", "go"}}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/posts/"+testPostID:
			_ = json.NewEncoder(w).Encode(PostWithComments{
				Post:     Post{ID: testPostID, Score: 3},
				Comments: []Comment{{ID: "c1", Comment: "first"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/posts/"+testPostID+"/comments":
			_ = json.NewEncoder(w).Encode(Comment{ID: "c2", Comment: "new"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/user/me":
			_ = json.NewEncoder(w).Encode(User{ID: testUserID, Username: "ana", Role: "ADMIN"})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	c, err := NewClient(server.URL+"/api", 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c = c.WithToken("tok")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	posts, err := c.FetchPostsByUser(ctx, testUserID)
	if err != nil {
		t.Fatalf("FetchPostsByUser returned error: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "hello" || len(posts[0].Tags) != 2 {
		t.Fatalf("FetchPostsByUser = %#v, want one post with duplicate tags", posts)
	}

	detail, err := c.FetchPost(ctx, testPostID)
	if err != nil {
		t.Fatalf("FetchPost returned error: %v", err)
	}
	if detail.Score != 3 || len(detail.Comments) != 1 {
		t.Fatalf("FetchPost = %#v, want score 3 and one comment", detail)
	}

	title := "edited"
	if err := c.UpdatePost(ctx, testPostID, PostPatch{Title: &title}); err != nil {
		t.Fatalf("UpdatePost returned error: %v", err)
	}
	if err := c.Like(ctx, VotePayload{PostID: testPostID, UserID: testUserID}); err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if err := c.Dislike(ctx, VotePayload{PostID: testPostID, UserID: testUserID}); err != nil {
		t.Fatalf("Dislike returned error: %v", err)
	}
	created, err := c.CreateComment(ctx, testPostID, NewComment{Comment: "new"})
	if err != nil {
		t.Fatalf("CreateComment returned error: %v", err)
	}
	if created.ID != "c2" || created.PostID != testPostID {
		t.Fatalf("CreateComment = %#v, want id c2 with post id filled", created)
	}
	if err := c.DeletePost(ctx, testPostID); err != nil {
		t.Fatalf("DeletePost returned error: %v", err)
	}

	user, err := c.FetchProfile(ctx, "other-token")
	if err != nil {
		t.Fatalf("FetchProfile returned error: %v", err)
	}
	if user.Username != "ana" || ParseRole(user.Role) != RoleAdmin {
		t.Fatalf("FetchProfile = %#v, want admin ana", user)
	}

	got := calls()
	if len(got) != 8 {
		t.Fatalf("server saw %d calls, want 8", len(got))
	}
	for _, call := range got {
		if _, err := uuid.Parse(call.reqID); err != nil {
			t.Fatalf("%s %s X-Request-Id = %q, want uuid", call.method, call.path, call.reqID)
		}
	}
	if got[0].auth != "Bearer tok" {
		t.Fatalf("Authorization = %q, want Bearer tok", got[0].auth)
	}
	if got[2].method != http.MethodPut || !strings.Contains(got[2].body, `"title":"edited"`) || strings.Contains(got[2].body, "description") {
		t.Fatalf("UpdatePost body = %q, want only title", got[2].body)
	}
	if got[3].path != "/api/posts/"+testPostID+"/like" || !strings.Contains(got[3].body, `"userId":"`+testUserID+`"`) {
		t.Fatalf("Like call = %#v, want like path with user id", got[3])
	}
	if got[4].path != "/api/posts/"+testPostID+"/dislike" {
		t.Fatalf("Dislike path = %q", got[4].path)
	}
	if got[6].method != http.MethodDelete {
		t.Fatalf("DeletePost method = %q, want DELETE", got[6].method)
	}
	if got[7].auth != "Bearer other-token" {
		t.Fatalf("FetchProfile Authorization = %q, want explicit token", got[7].auth)
	}
}

func TestClient_RejectsMalformedIDsWithoutRequest(t *testing.T) {
	server, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c, err := NewClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if _, err := c.FetchPost(context.Background(), "not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("FetchPost error = %v, want ErrInvalidID", err)
	}
	if err := c.Like(context.Background(), VotePayload{PostID: testPostID}); err == nil {
		t.Fatalf("Like without user id returned nil error")
	}
	if _, err := c.FetchProfile(context.Background(), "  "); err == nil {
		t.Fatalf("FetchProfile without token returned nil error")
	}
	if n := len(calls()); n != 0 {
		t.Fatalf("server saw %d calls, want 0", n)
	}
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"errors":[{"field":"title","message":"title is required"},{"message":"description too long"}]}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"post not found"}`))
		case http.MethodPost:
			http.Error(w, "upstream down", http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte("{not-json"))
		}
	})

	c, err := NewClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	err = c.UpdatePost(ctx, testPostID, PostPatch{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("UpdatePost error = %v, want *ValidationError", err)
	}
	if len(verr.Messages) != 2 || verr.Messages[0] != "title is required" {
		t.Fatalf("Messages = %#v", verr.Messages)
	}
	if err.Error() != "title is required, description too long" {
		t.Fatalf("Error() = %q", err.Error())
	}

	err = c.DeletePost(ctx, testPostID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeletePost error = %v, want ErrNotFound", err)
	}
	if IsRetryable(err) {
		t.Fatalf("404 should not be retryable")
	}

	err = c.Like(ctx, VotePayload{PostID: testPostID, UserID: testUserID})
	if !IsRetryable(err) || !strings.Contains(err.Error(), "returned status 502") {
		t.Fatalf("Like error = %v, want retryable 502", err)
	}

	_, err = c.FetchPost(ctx, testPostID)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchPost error = %v, want decode response error", err)
	}
}

func TestClient_NetworkFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewClient(url, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	err = c.DeletePost(context.Background(), testPostID)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("DeletePost error = %v, want ErrNetwork", err)
	}
	if !IsRetryable(err) {
		t.Fatalf("network error should be retryable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.DeletePost(ctx, testPostID)
	if IsRetryable(err) {
		t.Fatalf("cancelled request should not be retryable: %v", err)
	}
}

package forum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

var (
	// ErrNetwork wraps transport failures: refused connections, timeouts, DNS.
	ErrNetwork = errors.New("execute request")
	// ErrNotFound matches any APIError carrying a 404 status.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned before any request when an id is not UUID-shaped.
	ErrInvalidID = errors.New("invalid id")
)

// APIError reports a non-validation 4xx/5xx response.
type APIError struct {
	Method   string
	Path     string
	Status   int
	Messages []string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	if len(e.Messages) > 0 {
		msg += ": " + strings.Join(e.Messages, ", ")
	}
	return msg
}

// Is lets callers match 404s with errors.Is(err, ErrNotFound).
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// ValidationError is a rejected mutation with field-level messages.
type ValidationError struct {
	Status   int
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// IsRetryable reports whether err is a transient failure worth repeating:
// transport errors and 5xx responses, unless the caller's context ended.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return false
}

// Messages flattens any error into the list of user-facing strings the
// backend sent, falling back to the error text.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Messages) > 0 {
		return slices.Clone(verr.Messages)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Messages) > 0 {
		return slices.Clone(apiErr.Messages)
	}
	return []string{err.Error()}
}

// NormalizeMessages extracts error messages from an error response body.
// Understood shapes:
//
//	{"message": "x"}                     {"message": ["x", "y"]}
//	{"error": "x"}                       {"errors": ["x"]}
//	{"errors": [{"field": "f", "message": "x"}]}
//	{"errors": {"title": ["x"]}}
//
// A non-JSON body is returned as a single trimmed message.
func NormalizeMessages(body []byte) []string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		var list []string
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			return compact(list)
		}
		if json.Valid([]byte(trimmed)) {
			return nil
		}
		return []string{trimmed}
	}

	var out []string
	for _, key := range []string{"message", "error", "errors"} {
		if value, ok := raw[key]; ok {
			out = append(out, flatten(value)...)
		}
	}
	return compact(out)
}

func flatten(value json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return []string{s}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(value, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, flatten(item)...)
		}
		return out
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err != nil {
		return nil
	}
	if msg, ok := obj["message"]; ok {
		return flatten(msg)
	}
	if msg, ok := obj["msg"]; ok {
		return flatten(msg)
	}
	// Field map: {"title": ["required"]}. Sorted for stable output.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var out []string
	for _, k := range keys {
		out = append(out, flatten(obj[k])...)
	}
	return out
}

func compact(list []string) []string {
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
)

func TestClampScore(t *testing.T) {
	for in, want := range map[int]int{-5: 0, -1: 0, 0: 0, 3: 3} {
		if got := ClampScore(in); got != want {
			t.Errorf("ClampScore(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRetryPolicy(t *testing.T) {
	transient := fmt.Errorf("%w: reset", forum.ErrNetwork)

	tests := []struct {
		name      string
		policy    RetryPolicy
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"success first try", RetryPolicy{Attempts: 3}, nil, 1, false},
		{"transient then success", RetryPolicy{Attempts: 3}, []error{transient}, 2, false},
		{"attempts exhausted", RetryPolicy{Attempts: 2}, []error{transient, transient, transient}, 2, true},
		{"permanent stops", RetryPolicy{Attempts: 5}, []error{&forum.APIError{Status: 400}}, 1, true},
		{"zero attempts means one", RetryPolicy{}, []error{transient}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			errs := tt.errs
			err := tt.policy.do(context.Background(), func(context.Context) error {
				calls++
				if len(errs) == 0 {
					return nil
				}
				e := errs[0]
				errs = errs[1:]
				return e
			})
			if calls != tt.wantCalls || (err != nil) != tt.wantErr {
				t.Fatalf("calls=%d err=%v, want calls=%d err=%v", calls, err, tt.wantCalls, tt.wantErr)
			}
		})
	}
}

func TestRetryPolicy_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transient := fmt.Errorf("%w: reset", forum.ErrNetwork)
	calls := 0
	start := time.Now()
	err := RetryPolicy{Attempts: 5, Backoff: time.Hour}.do(ctx, func(context.Context) error {
		calls++
		cancel()
		return transient
	})
	if !errors.Is(err, forum.ErrNetwork) || calls != 1 {
		t.Fatalf("err=%v calls=%d, want network error after 1 call", err, calls)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("retry waited despite cancelled context")
	}
}

func TestRequests_TokensAndReset(t *testing.T) {
	var r requests
	first := r.begin("k")
	second := r.begin("k")
	if r.finish("k", first, nil) {
		t.Fatalf("stale token accepted")
	}
	if st := r.state("k"); st.Status != StatusLoading {
		t.Fatalf("stale finish changed state to %v", st.Status)
	}
	if !r.finish("k", second, errors.New("x")) {
		t.Fatalf("latest token rejected")
	}
	if st := r.state("k"); st.Status != StatusError || st.Err == nil || st.UpdatedAt.IsZero() {
		t.Fatalf("state = %#v, want error", st)
	}

	third := r.begin("k")
	r.reset()
	if r.finish("k", third, nil) {
		t.Fatalf("request issued before reset accepted")
	}
	if st := r.state("k"); st.Status != StatusIdle {
		t.Fatalf("state after reset = %v, want idle", st.Status)
	}
}

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	var k keyedMutex
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.locks) != 0 {
		t.Fatalf("lock entries leaked: %d", len(k.locks))
	}
}

func TestFetchStatusString(t *testing.T) {
	want := map[FetchStatus]string{StatusIdle: "idle", StatusLoading: "loading", StatusLoaded: "loaded", StatusError: "error"}
	for st, s := range want {
		if st.String() != s {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), s)
		}
	}
}

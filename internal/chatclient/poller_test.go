package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"crm-chat-server/internal/chat"
	"crm-chat-server/internal/models"
)

func pollServer(t *testing.T, hits *atomic.Int64, fail *atomic.Bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{"status": 500, "error": "boom"})
			return
		}
		page := chat.MessagePage{
			Messages:    []models.Message{{Body: "hi"}},
			CurrentPage: 1,
			TotalPages:  1,
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 200, "data": page})
	}))
}

func TestPollerFetchesImmediatelyThenOnInterval(t *testing.T) {
	var hits atomic.Int64
	var fail atomic.Bool
	srv := pollServer(t, &hits, &fail)
	defer srv.Close()

	var snapshots atomic.Int64
	poller := &Poller{
		Client:   NewClient(srv.URL, "token"),
		Interval: 20 * time.Millisecond,
		OnSnapshot: func(page *chat.MessagePage) {
			if len(page.Messages) != 1 {
				t.Errorf("snapshot messages = %d, want 1", len(page.Messages))
			}
			snapshots.Add(1)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx, "other-user", 1, 50)
		close(done)
	}()

	// The first fetch happens before the first tick
	deadline := time.After(2 * time.Second)
	for hits.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("no immediate fetch")
		case <-time.After(time.Millisecond):
		}
	}

	// And subsequent ticks keep fetching
	for hits.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("poller stalled after %d fetches", hits.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancellation")
	}

	if snapshots.Load() < 1 {
		t.Error("no snapshots delivered")
	}

	// No further fetches after cancellation
	settled := hits.Load()
	time.Sleep(60 * time.Millisecond)
	if hits.Load() != settled {
		t.Errorf("poller kept fetching after cancel: %d -> %d", settled, hits.Load())
	}
}

func TestPollerSwallowsFailures(t *testing.T) {
	var hits atomic.Int64
	var fail atomic.Bool
	fail.Store(true)
	srv := pollServer(t, &hits, &fail)
	defer srv.Close()

	var snapshots atomic.Int64
	poller := &Poller{
		Client:   NewClient(srv.URL, "token"),
		Interval: 10 * time.Millisecond,
		OnSnapshot: func(*chat.MessagePage) {
			snapshots.Add(1)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx, "other-user", 1, 50)

	// Failing fetches do not stop the loop
	deadline := time.After(2 * time.Second)
	for hits.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("loop stopped on failure after %d fetches", hits.Load())
		case <-time.After(time.Millisecond):
		}
	}
	if snapshots.Load() != 0 {
		t.Errorf("snapshots during failure = %d, want 0", snapshots.Load())
	}

	// Recovery on the next tick once the server heals
	fail.Store(false)
	for snapshots.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("no snapshot after recovery")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestClientUnreadCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("auth header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": 200,
			"data":   map[string]int64{"unreadCount": 7},
		})
	}))
	defer srv.Close()

	count, err := NewClient(srv.URL, "token").UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 7 {
		t.Errorf("count = %d, want 7", count)
	}
}

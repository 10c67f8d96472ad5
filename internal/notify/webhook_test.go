package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/bridge"
)

func TestWebhookDeliversLifecycleEvent(t *testing.T) {
	received := make(chan bridge.LifecycleEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var ev bridge.LifecycleEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		received <- ev
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL)
	hook.Notify(bridge.LifecycleEvent{
		ID:      "evt-1",
		Kind:    bridge.EventCallEnded,
		CallSid: "CA123",
		Reason:  bridge.ReasonCallerHangup,
	})

	select {
	case ev := <-received:
		if ev.Kind != bridge.EventCallEnded || ev.CallSid != "CA123" || ev.Reason != bridge.ReasonCallerHangup {
			t.Fatalf("unexpected payload: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never delivered")
	}
}

func TestWebhookNoURLIsNoOp(t *testing.T) {
	hook := NewWebhook("")
	// Must not panic or block.
	hook.Notify(bridge.LifecycleEvent{Kind: bridge.EventCallStarted})
	hook.Post(map[string]string{"k": "v"})
}

func TestWebhookFailureDoesNotBlockCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL)
	done := make(chan struct{})
	go func() {
		hook.Notify(bridge.LifecycleEvent{Kind: bridge.EventCallEnded})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a failing endpoint")
	}
}

package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/bridge"
)

func testTranscript() []bridge.TranscriptLine {
	return []bridge.TranscriptLine{
		{Role: "agent", Text: "Hi Dana, calling about your appointment."},
		{Role: "caller", Text: "Oh right, can we move it to Tuesday?"},
	}
}

func TestSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatCompletionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("messages = %d, want 2", len(req.Messages))
		}
		user := req.Messages[1].Content
		if !strings.Contains(user, "[AGENT]") || !strings.Contains(user, "[CALLER]") {
			t.Errorf("transcript roles missing from prompt: %q", user)
		}
		if !strings.Contains(user, "Dana") {
			t.Errorf("callee missing from prompt: %q", user)
		}
		json.NewEncoder(w).Encode(chatCompletionsResponse{
			ID: "cmpl-1",
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: "  Reached Dana; appointment moved to Tuesday.  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model")
	c.Endpoint = srv.URL

	got, err := c.Summarize(context.Background(), "Dana", testTranscript())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "Reached Dana; appointment moved to Tuesday." {
		t.Fatalf("summary = %q", got)
	}
}

func TestSummarizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model")
	c.Endpoint = srv.URL
	if _, err := c.Summarize(context.Background(), "Dana", testTranscript()); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestSummarizeRejectsEmptyTranscript(t *testing.T) {
	c := NewClient("test-key", "test-model")
	if _, err := c.Summarize(context.Background(), "Dana", nil); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestSummarizeRequiresKey(t *testing.T) {
	c := NewClient("", "test-model")
	if _, err := c.Summarize(context.Background(), "Dana", testTranscript()); err == nil {
		t.Fatal("expected error without api key")
	}
}

package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/config"
)

func newTestServer(cfg config.Config) *Server {
	if cfg.HTTPAddress == "" {
		cfg.HTTPAddress = ":0"
	}
	return New(cfg)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body)
	}
}

func TestPlaceCallRejectsMissingNumber(t *testing.T) {
	s := newTestServer(config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(`{"callee_identity":"Dana"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPlaceCallRejectsBadBody(t *testing.T) {
	s := newTestServer(config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPlaceCallWithoutCredentialsFails(t *testing.T) {
	s := newTestServer(config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(`{"to":"+15550001111"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestStreamURL(t *testing.T) {
	s := newTestServer(config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/calls", nil)
	req.Host = "bridge.example.com"
	if got := s.streamURL(req); got != "wss://bridge.example.com/media-stream" {
		t.Fatalf("streamURL = %q", got)
	}

	s.cfg.PublicHost = "public.example.com/"
	if got := s.streamURL(req); got != "wss://public.example.com/media-stream" {
		t.Fatalf("streamURL with PublicHost = %q", got)
	}
}

func TestVoiceWebhookRequiresSignature(t *testing.T) {
	s := newTestServer(config.Config{TwilioAuthToken: "secret"})
	req := httptest.NewRequest(http.MethodPost, "/twilio/voice", strings.NewReader("CallSid=CA123"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

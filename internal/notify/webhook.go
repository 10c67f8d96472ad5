package notify

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/bridge"
)

// Webhook posts JSON payloads to a fixed URL, fire-and-forget. Delivery
// failures are logged and dropped; there is no retry here.
type Webhook struct {
	URL        string
	HTTPClient *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify implements bridge.Notifier. It returns before delivery completes so
// the session's teardown is never blocked on the webhook.
func (w *Webhook) Notify(ev bridge.LifecycleEvent) {
	w.Post(ev)
}

// Post delivers an arbitrary payload asynchronously. A webhook with no URL
// configured is a no-op.
func (w *Webhook) Post(payload any) {
	if w.URL == "" {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("webhook: marshal failed: %v", err)
		return
	}
	go w.deliver(body)
}

func (w *Webhook) deliver(body []byte) {
	req, err := http.NewRequest(http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		log.Printf("webhook: request build failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		log.Printf("webhook: delivery to %s failed: %v", w.URL, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("webhook: %s returned status %d: %s", w.URL, resp.StatusCode, string(preview))
	}
}

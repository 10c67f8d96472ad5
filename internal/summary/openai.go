package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/bridge"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Client produces a post-call natural-language summary through a one-shot
// chat-completions request. Invoked outside the session's critical path.
type Client struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	Endpoint   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      model,
		Endpoint:   defaultEndpoint,
	}
}

// Summarize turns the call transcript into a short free-text summary.
func (c *Client) Summarize(ctx context.Context, calleeIdentity string, transcript []bridge.TranscriptLine) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("openai api key missing")
	}
	if len(transcript) == 0 {
		return "", fmt.Errorf("empty transcript")
	}

	var b strings.Builder
	for _, line := range transcript {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(line.Role))
		b.WriteString("] ")
		b.WriteString(line.Text)
		b.WriteString("\n")
	}

	messages := []chatMessage{
		{Role: "system", Content: "You summarize outbound phone calls. Write a short factual summary of the conversation: who was reached, what was discussed, and any follow-up the callee asked for."},
		{Role: "user", Content: fmt.Sprintf("Callee: %s\n\nTranscript:\n%s", calleeIdentity, b.String())},
	}

	reqBody, _ := json.Marshal(chatCompletionsRequest{Model: c.Model, Messages: messages})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("summary error: status=%d body=%s", resp.StatusCode, string(body))
	}
	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("summary: empty choices")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

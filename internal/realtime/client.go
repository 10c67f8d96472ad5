package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const defaultEndpoint = "wss://api.openai.com/v1/realtime"

// Client is a websocket connection to the realtime dialogue service. All
// control messages are fire-and-forget; inbound events are delivered through
// the callback passed to Run.
type Client struct {
	conn *websocket.Conn

	// gorilla allows a single concurrent writer; the session reactor is the
	// normal writer but Close can race it.
	writeMu sync.Mutex
}

// Dial opens the realtime websocket for the given model.
func Dial(ctx context.Context, apiKey, model string) (*Client, error) {
	return DialURL(ctx, defaultEndpoint, apiKey, model)
}

// DialURL is Dial with an explicit endpoint, used by tests.
func DialURL(ctx context.Context, endpoint, apiKey, model string) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	url := endpoint + "?model=" + model
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime dial failed: status=%d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime dial failed: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Run reads events until the connection closes, invoking onEvent for each
// recognized one. It always delivers a final EventClosed. Run blocks and is
// meant to be called on its own goroutine.
func (c *Client) Run(onEvent func(Event)) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			onEvent(Event{Kind: EventClosed, Err: err})
			return
		}
		if ev, ok := ParseEvent(data); ok {
			onEvent(ev)
		}
	}
}

func (c *Client) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// SessionConfig carries the tunables sent in the configuration handshake.
type SessionConfig struct {
	Instructions string
	Voice        string
	VADThreshold float64
	VADPrefixMs  int
	VADSilenceMs int
}

// Configure sends the session.update handshake: telephony audio formats,
// server-side voice activity detection and the assembled instructions.
func (c *Client) Configure(cfg SessionConfig) error {
	return c.send(map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"input_audio_format":  "g711_ulaw",
			"output_audio_format": "g711_ulaw",
			"voice":               cfg.Voice,
			"instructions":        cfg.Instructions,
			"modalities":          []string{"text", "audio"},
			"turn_detection": map[string]any{
				"type":                "server_vad",
				"threshold":           cfg.VADThreshold,
				"prefix_padding_ms":   cfg.VADPrefixMs,
				"silence_duration_ms": cfg.VADSilenceMs,
			},
			"input_audio_transcription": map[string]any{
				"model": "whisper-1",
			},
		},
	})
}

// InjectUtterance adds an assistant-directed text turn and asks the service
// to speak a response for it.
func (c *Client) InjectUtterance(text string) error {
	item := map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": text},
			},
		},
	}
	if err := c.send(item); err != nil {
		return err
	}
	return c.RequestResponse()
}

// RequestResponse asks the service to start speaking.
func (c *Client) RequestResponse() error {
	return c.send(map[string]any{"type": "response.create"})
}

// AppendAudio forwards one base64 caller audio chunk.
func (c *Client) AppendAudio(payload string) error {
	return c.send(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": payload,
	})
}

// CancelResponse interrupts the in-flight spoken response.
func (c *Client) CancelResponse() error {
	return c.send(map[string]any{"type": "response.cancel"})
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// wireEvent is the subset of the server event envelope this bridge reads.
type wireEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ParseEvent normalizes one raw server event. Unknown event types and
// malformed payloads report ok=false and are skipped by the caller.
func ParseEvent(data []byte) (Event, bool) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, false
	}
	switch w.Type {
	case "session.created":
		return Event{Kind: EventOpened}, true
	case "response.audio.delta", "response.output_audio.delta":
		return Event{Kind: EventAudio, Audio: w.Delta}, true
	case "input_audio_buffer.speech_started":
		return Event{Kind: EventSpeechStarted}, true
	case "response.done":
		return Event{Kind: EventResponseCompleted}, true
	case "response.audio_transcript.done", "response.output_audio_transcript.done":
		return Event{Kind: EventAssistantTranscript, Text: w.Transcript}, true
	case "conversation.item.input_audio_transcription.completed":
		return Event{Kind: EventCallerTranscript, Text: w.Transcript}, true
	case "error":
		msg := "realtime error"
		if w.Error != nil && w.Error.Message != "" {
			msg = w.Error.Message
		}
		return Event{Kind: EventError, Err: fmt.Errorf("%s", msg)}, true
	}
	return Event{}, false
}

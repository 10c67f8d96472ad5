package twilio

import "encoding/json"

// Media Streams frame envelope. Twilio sends one JSON object per websocket
// message; the Event field discriminates the payload.
type StreamFrame struct {
	Event string `json:"event"`

	StreamSid string      `json:"streamSid,omitempty"`
	Start     *StartFrame `json:"start,omitempty"`
	Media     *MediaFrame `json:"media,omitempty"`
}

// StartFrame carries the identifiers and custom parameters attached to the
// call via TwiML <Parameter> elements.
type StartFrame struct {
	StreamSid        string            `json:"streamSid"`
	CallSid          string            `json:"callSid"`
	AccountSid       string            `json:"accountSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

// MediaFrame carries a base64-encoded audio chunk. The payload is opaque to
// this service and forwarded unchanged.
type MediaFrame struct {
	Track     string `json:"track,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// Frame event names used by Media Streams.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventStop      = "stop"
)

// ParseFrame decodes one inbound websocket message. Callers treat a non-nil
// error as noise and keep reading.
func ParseFrame(data []byte) (StreamFrame, error) {
	var f StreamFrame
	err := json.Unmarshal(data, &f)
	return f, err
}

// OutboundMedia builds the media frame sent back to Twilio for playback on
// the call identified by streamSid.
func OutboundMedia(streamSid, payload string) ([]byte, error) {
	return json.Marshal(StreamFrame{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     &MediaFrame{Payload: payload},
	})
}

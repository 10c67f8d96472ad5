package bridge

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle event kinds.
const (
	EventCallStarted = "call_started"
	EventCallEnded   = "call_ended"
)

// Calls placed by this service are always outbound.
const directionOutbound = "outbound"

// LifecycleEvent is the status payload dispatched to the webhook transport.
// One is produced at successful negotiation completion and one at terminal
// close; delivery failures never affect the session.
type LifecycleEvent struct {
	ID             string      `json:"id"`
	Kind           string      `json:"event"`
	Direction      string      `json:"direction"`
	CallSid        string      `json:"call_sid"`
	StreamSid      string      `json:"stream_sid"`
	CalleeIdentity string      `json:"callee_identity,omitempty"`
	Campaign       string      `json:"campaign,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	DurationMs     int64       `json:"duration_ms,omitempty"`
	Reason         CloseReason `json:"reason,omitempty"`
}

func (s *Session) startedEvent() LifecycleEvent {
	return LifecycleEvent{
		ID:             uuid.NewString(),
		Kind:           EventCallStarted,
		Direction:      directionOutbound,
		CallSid:        s.callSid,
		StreamSid:      s.streamSid,
		CalleeIdentity: s.calleeIdentity,
		Campaign:       s.campaign,
		Timestamp:      time.Now(),
	}
}

func (s *Session) endedEvent(reason CloseReason) LifecycleEvent {
	return LifecycleEvent{
		ID:             uuid.NewString(),
		Kind:           EventCallEnded,
		Direction:      directionOutbound,
		CallSid:        s.callSid,
		StreamSid:      s.streamSid,
		CalleeIdentity: s.calleeIdentity,
		Campaign:       s.campaign,
		Timestamp:      time.Now(),
		DurationMs:     time.Since(s.startedAt).Milliseconds(),
		Reason:         reason,
	}
}

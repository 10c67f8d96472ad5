package bridge

import (
	"context"
	"time"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/realtime"
)

// State is the call session lifecycle state.
type State int

const (
	// StateAwaitingStart: telephony socket open, no start frame yet.
	StateAwaitingStart State = iota
	// StateNegotiating: start frame processed, dialogue connection opening.
	StateNegotiating
	// StateActive: dialogue service configured, audio flowing both ways.
	StateActive
	// StateClosing: teardown in progress.
	StateClosing
	// StateClosed: terminal; all timers cancelled, both connections closed.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateNegotiating:
		return "negotiating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// CloseReason records why a session tore down. Write-once.
type CloseReason string

const (
	ReasonCallerHangup   CloseReason = "caller_hangup"
	ReasonIdleTimeout    CloseReason = "idle_timeout"
	ReasonMaxDuration    CloseReason = "max_duration"
	ReasonDialogueClosed CloseReason = "dialogue_closed"
	ReasonDialogueError  CloseReason = "dialogue_error"
	ReasonTelephonyError CloseReason = "telephony_error"
)

// TelephonyConn is the write side of the telephony media stream.
type TelephonyConn interface {
	SendMedia(streamSid, payload string) error
	Close() error
}

// DialogueConn is the write side of the dialogue-service connection. All
// sends are fire-and-forget with respect to session control flow.
type DialogueConn interface {
	Configure(instructions string) error
	InjectUtterance(text string) error
	AppendAudio(payload string) error
	CancelResponse() error
	Close() error
}

// DialogueDialer opens the dialogue-service connection. Events must not be
// delivered on the returned channel before Dial returns; the channel is
// closed when the connection's read loop exits.
type DialogueDialer interface {
	Dial(ctx context.Context) (DialogueConn, <-chan realtime.Event, error)
}

// Notifier receives lifecycle events. Implementations must not block and
// must not surface delivery failures back to the session.
type Notifier interface {
	Notify(ev LifecycleEvent)
}

// TranscriptLine is one finished utterance captured during the call.
type TranscriptLine struct {
	Role string `json:"role"` // "caller" or "agent"
	Text string `json:"text"`
}

// Config carries the per-process tunables a session needs.
type Config struct {
	OpeningScript  string
	GeneralPrompt  string
	BusinessPrompt string
	ClosingScript  string
	Languages      []string

	IdleWarning  time.Duration
	IdleHangup   time.Duration
	MaxWarning   time.Duration
	MaxHangup    time.Duration
	ClosingGrace time.Duration

	BargeInEnabled bool
}

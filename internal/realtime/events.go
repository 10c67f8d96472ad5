package realtime

// EventKind identifies a normalized server event.
type EventKind int

const (
	// EventOpened is the configuration handshake acknowledgment.
	EventOpened EventKind = iota
	// EventAudio carries one base64 chunk of spoken agent audio.
	EventAudio
	// EventSpeechStarted reports that the caller began talking.
	EventSpeechStarted
	// EventResponseCompleted reports that an in-flight spoken response ended.
	EventResponseCompleted
	// EventAssistantTranscript carries the text of a finished agent utterance.
	EventAssistantTranscript
	// EventCallerTranscript carries the text of a finished caller utterance.
	EventCallerTranscript
	// EventError is a service-reported error; the connection may stay open.
	EventError
	// EventClosed is delivered exactly once when the read loop exits.
	EventClosed
)

// Event is the normalized form of a dialogue-service message.
type Event struct {
	Kind  EventKind
	Audio string // base64 payload for EventAudio
	Text  string // transcript text
	Err   error  // EventError / EventClosed
}

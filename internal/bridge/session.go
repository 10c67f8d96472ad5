package bridge

import (
	"context"
	"log"
	"time"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/realtime"
	"github.com/shaysiboni1-alt/misterbot-outbound/internal/twilio"
)

type eventKind int

const (
	evTelephonyFrame eventKind = iota
	evTelephonyClosed
	evDialogueDialed
	evDialogueEvent
	evTimer
	evGraceElapsed
)

type event struct {
	kind  eventKind
	frame twilio.StreamFrame
	conn  DialogueConn
	dlg   realtime.Event
	timer timerKind
	err   error
}

// Session bridges one telephony media stream with one dialogue-service
// connection for the lifetime of a phone call. All state lives on the
// reactor goroutine: socket pumps and timers only enqueue events, and the
// run loop processes them strictly in arrival order, so no field below needs
// a lock.
type Session struct {
	cfg      Config
	tel      TelephonyConn
	dialer   DialogueDialer
	notifier Notifier

	events chan event
	done   chan struct{}

	// reactor-owned state
	state          State
	streamSid      string
	callSid        string
	calleeIdentity string
	campaign       string
	startedAt      time.Time
	dlg            DialogueConn
	cancelDial     context.CancelFunc
	timers         *timerSet
	barge          bargeInController
	relay          audioRelay
	closeStarted   bool
	closeReason    CloseReason
	// graceCause holds the pending hangup cause while the closing script is
	// being spoken; the actual close runs when the grace deadline elapses.
	graceCause CloseReason
	transcript []TranscriptLine
}

// NewSession creates a session for one accepted telephony connection.
func NewSession(cfg Config, tel TelephonyConn, dialer DialogueDialer, notifier Notifier) *Session {
	s := &Session{
		cfg:      cfg,
		tel:      tel,
		dialer:   dialer,
		notifier: notifier,
		events:   make(chan event, 128),
		done:     make(chan struct{}),
		state:    StateAwaitingStart,
		barge:    bargeInController{enabled: cfg.BargeInEnabled},
		relay:    audioRelay{tel: tel},
	}
	s.timers = newTimerSet(func(k timerKind) {
		s.enqueue(event{kind: evTimer, timer: k})
	})
	return s
}

// Run drives the reactor until the session reaches StateClosed. Callers
// typically run it on its own goroutine and pump telephony messages in via
// HandleTelephonyMessage.
func (s *Session) Run() {
	for e := range s.events {
		s.handle(e)
		if s.state == StateClosed {
			return
		}
	}
}

// Done is closed when the session reaches StateClosed.
func (s *Session) Done() <-chan struct{} { return s.done }

// CloseReason reports why the session closed. Valid after Done.
func (s *Session) CloseReason() CloseReason { return s.closeReason }

// CallSid reports the provider call identifier. Valid after Done.
func (s *Session) CallSid() string { return s.callSid }

// CalleeIdentity reports the callee name/number from the start parameters.
// Valid after Done.
func (s *Session) CalleeIdentity() string { return s.calleeIdentity }

// Campaign reports the campaign correlation tag. Valid after Done.
func (s *Session) Campaign() string { return s.campaign }

// Transcript returns the captured utterances. Valid after Done.
func (s *Session) Transcript() []TranscriptLine { return s.transcript }

// HandleTelephonyMessage feeds one raw telephony websocket message into the
// reactor. Malformed messages are discarded as noise.
func (s *Session) HandleTelephonyMessage(data []byte) {
	frame, err := twilio.ParseFrame(data)
	if err != nil {
		log.Printf("[%s] dropping malformed telephony frame: %v", s.streamSid, err)
		return
	}
	s.enqueue(event{kind: evTelephonyFrame, frame: frame})
}

// TelephonyClosed reports that the telephony socket closed or errored.
func (s *Session) TelephonyClosed(err error) {
	s.enqueue(event{kind: evTelephonyClosed, err: err})
}

// enqueue posts onto the reactor queue, dropping the event if the session
// already finished.
func (s *Session) enqueue(e event) {
	select {
	case <-s.done:
	case s.events <- e:
	}
}

func (s *Session) handle(e event) {
	switch e.kind {
	case evTelephonyFrame:
		s.handleTelephonyFrame(e.frame)
	case evTelephonyClosed:
		if e.err != nil {
			log.Printf("[%s] telephony socket closed: %v", s.streamSid, e.err)
		}
		s.beginClose(ReasonTelephonyError)
	case evDialogueDialed:
		s.handleDialed(e.conn, e.err)
	case evDialogueEvent:
		s.handleDialogueEvent(e.dlg)
	case evTimer:
		s.handleTimer(e.timer)
	case evGraceElapsed:
		s.beginClose(s.graceCause)
	}
}

func (s *Session) handleTelephonyFrame(frame twilio.StreamFrame) {
	// Any telephony inbound event counts as activity.
	if s.state == StateNegotiating || s.state == StateActive {
		s.timers.resetIdle(s.cfg.IdleWarning, s.cfg.IdleHangup)
	}

	switch frame.Event {
	case twilio.EventStart:
		if s.state != StateAwaitingStart || frame.Start == nil {
			return
		}
		s.streamSid = frame.Start.StreamSid
		s.callSid = frame.Start.CallSid
		s.calleeIdentity = frame.Start.CustomParameters[twilio.ParamCalleeIdentity]
		s.campaign = frame.Start.CustomParameters[twilio.ParamCampaign]
		s.startedAt = time.Now()
		s.relay.streamSid = s.streamSid
		s.state = StateNegotiating
		log.Printf("[%s] call started: callSid=%s callee=%q campaign=%q",
			s.streamSid, s.callSid, s.calleeIdentity, s.campaign)

		s.timers.armMax(s.cfg.MaxWarning, s.cfg.MaxHangup)
		s.timers.resetIdle(s.cfg.IdleWarning, s.cfg.IdleHangup)
		s.openDialogue()

	case twilio.EventMedia:
		if frame.Media == nil {
			return
		}
		if s.state != StateActive {
			return
		}
		if err := s.relay.callerAudio(frame.Media.Payload); err != nil {
			log.Printf("[%s] caller audio forward failed: %v", s.streamSid, err)
		}

	case twilio.EventStop:
		s.beginClose(ReasonCallerHangup)
	}
}

// openDialogue dials the dialogue service off the reactor goroutine; the
// result and all subsequent events come back through the queue, so the
// connection handle is only ever touched by the reactor.
func (s *Session) openDialogue() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelDial = cancel
	go func() {
		conn, events, err := s.dialer.Dial(ctx)
		s.enqueue(event{kind: evDialogueDialed, conn: conn, err: err})
		if err != nil {
			return
		}
		for ev := range events {
			s.enqueue(event{kind: evDialogueEvent, dlg: ev})
		}
	}()
}

func (s *Session) handleDialed(conn DialogueConn, err error) {
	if err != nil {
		log.Printf("[%s] dialogue dial failed: %v", s.streamSid, err)
		s.beginClose(ReasonDialogueError)
		return
	}
	if s.closeStarted {
		// Lost the race against teardown; never reopen.
		_ = conn.Close()
		return
	}
	s.dlg = conn
	s.relay.dlg = conn
}

func (s *Session) handleDialogueEvent(ev realtime.Event) {
	switch ev.Kind {
	case realtime.EventOpened:
		if s.state != StateNegotiating || s.dlg == nil {
			return
		}
		if err := s.dlg.Configure(BuildInstructions(s.cfg)); err != nil {
			log.Printf("[%s] dialogue configure failed: %v", s.streamSid, err)
			s.beginClose(ReasonDialogueError)
			return
		}
		if s.cfg.OpeningScript != "" {
			opening := OpeningLine(s.cfg.OpeningScript, s.calleeIdentity)
			if err := s.dlg.InjectUtterance(opening); err != nil {
				log.Printf("[%s] opening utterance failed: %v", s.streamSid, err)
			} else {
				s.barge.responseStarted()
			}
		}
		s.relay.ready = true
		s.state = StateActive
		s.notifier.Notify(s.startedEvent())
		log.Printf("[%s] negotiation complete, session active", s.streamSid)

	case realtime.EventAudio:
		if !s.barge.shouldForward() {
			return
		}
		// Audio arriving implies a response is in flight, whether or not we
		// asked for it; the service starts responses on its own turns too.
		s.barge.responseStarted()
		if err := s.relay.agentAudio(ev.Audio); err != nil {
			log.Printf("[%s] agent audio forward failed: %v", s.streamSid, err)
		}

	case realtime.EventSpeechStarted:
		if s.barge.speechStarted() {
			log.Printf("[%s] barge-in: cancelling in-flight response", s.streamSid)
			if err := s.dlg.CancelResponse(); err != nil {
				log.Printf("[%s] response cancel failed: %v", s.streamSid, err)
			}
		}

	case realtime.EventResponseCompleted:
		s.barge.responseDone()

	case realtime.EventAssistantTranscript:
		if ev.Text != "" {
			s.transcript = append(s.transcript, TranscriptLine{Role: "agent", Text: ev.Text})
		}

	case realtime.EventCallerTranscript:
		if ev.Text != "" {
			s.transcript = append(s.transcript, TranscriptLine{Role: "caller", Text: ev.Text})
		}

	case realtime.EventError:
		log.Printf("[%s] dialogue service error: %v", s.streamSid, ev.Err)
		s.beginClose(ReasonDialogueError)

	case realtime.EventClosed:
		s.beginClose(ReasonDialogueClosed)
	}
}

func (s *Session) handleTimer(k timerKind) {
	if s.state != StateActive && s.state != StateNegotiating {
		return
	}
	switch k {
	case timerIdleWarning:
		log.Printf("[%s] idle warning: issuing check-in prompt", s.streamSid)
		s.speak(checkInLine)
	case timerMaxWarning:
		log.Printf("[%s] max-duration warning", s.streamSid)
		s.speak(wrapUpLine)
	case timerIdleHangup:
		s.scheduleHangup(ReasonIdleTimeout)
	case timerMaxHangup:
		s.scheduleHangup(ReasonMaxDuration)
	}
}

// speak injects a spoken line if the dialogue connection is usable.
func (s *Session) speak(text string) {
	if s.state != StateActive || s.dlg == nil {
		return
	}
	if err := s.dlg.InjectUtterance(text); err != nil {
		log.Printf("[%s] inject utterance failed: %v", s.streamSid, err)
		return
	}
	s.barge.responseStarted()
}

// scheduleHangup speaks the closing script, if configured, and defers the
// actual close by the grace period so the line is not truncated. Without a
// usable dialogue connection it closes immediately.
func (s *Session) scheduleHangup(cause CloseReason) {
	if s.closeStarted || s.graceCause != "" {
		return
	}
	if s.state == StateActive && s.dlg != nil && s.cfg.ClosingScript != "" {
		log.Printf("[%s] hangup (%s): speaking closing script", s.streamSid, cause)
		s.graceCause = cause
		s.speak(s.cfg.ClosingScript)
		time.AfterFunc(s.cfg.ClosingGrace, func() {
			s.enqueue(event{kind: evGraceElapsed})
		})
		return
	}
	s.beginClose(cause)
}

// beginClose runs the one-shot teardown: cancel timers, best-effort close of
// both connections, dispatch the terminal lifecycle notification, and enter
// StateClosed. Concurrent triggers collapse onto the first cause.
func (s *Session) beginClose(cause CloseReason) {
	if s.closeStarted {
		return
	}
	s.closeStarted = true
	s.closeReason = cause
	s.state = StateClosing
	log.Printf("[%s] closing: %s", s.streamSid, cause)

	s.timers.cancelAll()
	if s.cancelDial != nil {
		s.cancelDial()
	}
	if s.dlg != nil {
		if err := s.dlg.Close(); err != nil {
			log.Printf("[%s] dialogue close failed: %v", s.streamSid, err)
		}
	}
	if err := s.tel.Close(); err != nil {
		log.Printf("[%s] telephony close failed: %v", s.streamSid, err)
	}

	// Sessions that never saw a start frame have no identifiers to report.
	if s.callSid != "" {
		s.notifier.Notify(s.endedEvent(cause))
	}

	s.state = StateClosed
	close(s.done)
	log.Printf("[%s] closed", s.streamSid)
}

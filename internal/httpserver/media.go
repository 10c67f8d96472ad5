package httpserver

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/bridge"
	"github.com/shaysiboni1-alt/misterbot-outbound/internal/realtime"
	"github.com/shaysiboni1-alt/misterbot-outbound/internal/twilio"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Twilio does not send an Origin header worth checking.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleMediaStream upgrades the websocket and runs one call session on it.
// The handler goroutine is the telephony read pump; it returns when the
// session finishes.
func (s *Server) handleMediaStream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("media-stream upgrade failed: %v", err)
		return err
	}

	tel := &telephonyConn{conn: conn}
	dialer := &realtimeDialer{
		apiKey:       s.cfg.OpenAIKey,
		model:        s.cfg.OpenAIModel,
		voice:        s.cfg.Voice,
		vadThreshold: s.cfg.VADThreshold,
		vadPrefixMs:  s.cfg.VADPrefixMs,
		vadSilenceMs: s.cfg.VADSilenceMs,
	}

	sess := bridge.NewSession(bridge.Config{
		OpeningScript:  s.cfg.OpeningScript,
		GeneralPrompt:  s.cfg.GeneralPrompt,
		BusinessPrompt: s.cfg.BusinessPrompt,
		ClosingScript:  s.cfg.ClosingScript,
		Languages:      s.cfg.Languages,
		IdleWarning:    s.cfg.IdleWarning,
		IdleHangup:     s.cfg.IdleHangup,
		MaxWarning:     s.cfg.MaxWarning,
		MaxHangup:      s.cfg.MaxHangup,
		ClosingGrace:   s.cfg.ClosingGrace,
		BargeInEnabled: s.cfg.BargeInEnabled,
	}, tel, dialer, s.status)

	go sess.Run()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			sess.TelephonyClosed(err)
			break
		}
		sess.HandleTelephonyMessage(data)
	}
	<-sess.Done()

	s.afterCall(sess)
	return nil
}

// afterCall produces the post-call summary and ships it to the call-log
// webhook. Runs outside the session's critical path; any failure is logged
// and dropped.
func (s *Server) afterCall(sess *bridge.Session) {
	transcript := sess.Transcript()
	if s.cfg.CallLogWebhook == "" || len(transcript) == 0 {
		return
	}
	callSid := sess.CallSid()
	callee := sess.CalleeIdentity()
	campaign := sess.Campaign()
	reason := sess.CloseReason()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
		defer cancel()
		text, err := s.summarizer.Summarize(ctx, callee, transcript)
		if err != nil {
			log.Printf("[%s] post-call summary failed: %v", callSid, err)
			text = ""
		}
		s.callLog.Post(map[string]any{
			"call_sid":        callSid,
			"callee_identity": callee,
			"campaign":        campaign,
			"reason":          reason,
			"transcript":      transcript,
			"summary":         text,
		})
	}()
}

// telephonyConn adapts a gorilla websocket to bridge.TelephonyConn. The
// session reactor is the only writer during the call, but Close can race a
// final send, hence the mutex.
type telephonyConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (t *telephonyConn) SendMedia(streamSid, payload string) error {
	frame, err := twilio.OutboundMedia(streamSid, payload)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

func (t *telephonyConn) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return t.conn.Close()
}

// realtimeDialer opens the dialogue-service connection and adapts it to the
// bridge interfaces.
type realtimeDialer struct {
	apiKey string
	model  string
	voice  string

	vadThreshold float64
	vadPrefixMs  int
	vadSilenceMs int
}

func (d *realtimeDialer) Dial(ctx context.Context) (bridge.DialogueConn, <-chan realtime.Event, error) {
	client, err := realtime.Dial(ctx, d.apiKey, d.model)
	if err != nil {
		return nil, nil, err
	}

	events := make(chan realtime.Event, 64)
	go func() {
		defer close(events)
		client.Run(func(ev realtime.Event) { events <- ev })
	}()

	return &dialogueConn{client: client, dialer: d}, events, nil
}

// dialogueConn binds the per-process voice/VAD settings to the bridge's
// Configure call, which only carries the per-call instructions.
type dialogueConn struct {
	client *realtime.Client
	dialer *realtimeDialer
}

func (c *dialogueConn) Configure(instructions string) error {
	return c.client.Configure(realtime.SessionConfig{
		Instructions: instructions,
		Voice:        c.dialer.voice,
		VADThreshold: c.dialer.vadThreshold,
		VADPrefixMs:  c.dialer.vadPrefixMs,
		VADSilenceMs: c.dialer.vadSilenceMs,
	})
}

func (c *dialogueConn) InjectUtterance(text string) error { return c.client.InjectUtterance(text) }
func (c *dialogueConn) AppendAudio(payload string) error  { return c.client.AppendAudio(payload) }
func (c *dialogueConn) CancelResponse() error             { return c.client.CancelResponse() }
func (c *dialogueConn) Close() error                      { return c.client.Close() }

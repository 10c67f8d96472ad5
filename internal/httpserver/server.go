package httpserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/shaysiboni1-alt/misterbot-outbound/internal/config"
	"github.com/shaysiboni1-alt/misterbot-outbound/internal/middleware"
	"github.com/shaysiboni1-alt/misterbot-outbound/internal/notify"
	"github.com/shaysiboni1-alt/misterbot-outbound/internal/summary"
	"github.com/shaysiboni1-alt/misterbot-outbound/internal/twilio"
)

// Server wires the HTTP routes: health, outbound call placement, the Twilio
// voice webhook and the media-stream websocket endpoint.
type Server struct {
	Echo *echo.Echo

	cfg        config.Config
	caller     *twilio.Caller
	status     *notify.Webhook
	callLog    *notify.Webhook
	summarizer *summary.Client
}

// New constructs the server and registers routes.
func New(cfg config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	s := &Server{
		Echo: e,
		cfg:  cfg,
		caller: twilio.NewCaller(twilio.Config{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFromNumber,
		}),
		status:     notify.NewWebhook(cfg.StatusWebhook),
		callLog:    notify.NewWebhook(cfg.CallLogWebhook),
		summarizer: summary.NewClient(cfg.OpenAIKey, "gpt-4o-mini"),
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/calls", s.handlePlaceCall)
	e.POST("/twilio/voice", s.handleVoice, middleware.TwilioAuth(cfg.TwilioAuthToken))
	e.GET("/media-stream", s.handleMediaStream)

	return s
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	return s.Echo.Start(s.cfg.HTTPAddress)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

type placeCallRequest struct {
	To             string `json:"to"`
	CalleeIdentity string `json:"callee_identity"`
	Campaign       string `json:"campaign"`
}

type placeCallResponse struct {
	ID      string `json:"id"`
	CallSid string `json:"call_sid"`
}

// handlePlaceCall places an outbound call whose TwiML connects the answered
// leg to this service's media-stream endpoint.
func (s *Server) handlePlaceCall(c echo.Context) error {
	var req placeCallRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid request body")
	}
	if req.To == "" {
		return c.String(http.StatusBadRequest, "missing 'to' number")
	}

	callSid, err := s.caller.PlaceCall(req.To, s.streamURL(c.Request()), req.CalleeIdentity, req.Campaign)
	if err != nil {
		log.Printf("place call to %s failed: %v", req.To, err)
		return c.String(http.StatusBadGateway, "failed to place call")
	}

	return c.JSON(http.StatusOK, placeCallResponse{ID: uuid.NewString(), CallSid: callSid})
}

// handleVoice answers Twilio's voice webhook with the stream TwiML, for
// deployments that point the call at a URL instead of inline TwiML.
func (s *Server) handleVoice(c echo.Context) error {
	params, ok := c.Get("twilioParams").(map[string]string)
	if !ok {
		return c.String(http.StatusInternalServerError, "missing Twilio parameters")
	}

	doc, err := twilio.StreamTwiML(s.streamURL(c.Request()),
		params["callee_identity"], params["campaign"])
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to build TwiML")
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml")
	return c.String(http.StatusOK, doc)
}

// streamURL builds the wss:// URL Twilio should open the media stream to.
func (s *Server) streamURL(r *http.Request) string {
	host := s.cfg.PublicHost
	if host == "" {
		host = r.Host
	}
	host = strings.TrimSuffix(host, "/")
	return fmt.Sprintf("wss://%s/media-stream", host)
}

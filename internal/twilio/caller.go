package twilio

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
)

// Parameter names attached to the media stream via TwiML <Parameter>. The
// bridge reads them back from the start frame's customParameters.
const (
	ParamCalleeIdentity = "callee_identity"
	ParamCampaign       = "campaign"
)

type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Caller places outbound calls and builds the TwiML that instructs Twilio to
// open a media stream back to this service.
type Caller struct {
	config Config
	client *twilio.RestClient
}

func NewCaller(config Config) *Caller {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})
	return &Caller{config: config, client: client}
}

// StreamTwiML builds a <Connect><Stream> document pointing at streamURL with
// the callee identity and campaign tag carried as custom parameters.
func StreamTwiML(streamURL, calleeIdentity, campaign string) (string, error) {
	stream := &twiml.VoiceStream{Url: streamURL}
	var params []twiml.Element
	if calleeIdentity != "" {
		params = append(params, &twiml.VoiceParameter{Name: ParamCalleeIdentity, Value: calleeIdentity})
	}
	if campaign != "" {
		params = append(params, &twiml.VoiceParameter{Name: ParamCampaign, Value: campaign})
	}
	stream.InnerElements = params

	connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
	return twiml.Voice([]twiml.Element{connect})
}

// PlaceCall creates an outbound call with inline TwiML and returns the call
// SID assigned by Twilio.
func (c *Caller) PlaceCall(to, streamURL, calleeIdentity, campaign string) (string, error) {
	if c.config.AccountSID == "" || c.config.AuthToken == "" {
		return "", fmt.Errorf("missing Twilio credentials: TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN required")
	}
	if c.config.FromNumber == "" {
		return "", fmt.Errorf("missing TWILIO_FROM_NUMBER")
	}

	doc, err := StreamTwiML(streamURL, calleeIdentity, campaign)
	if err != nil {
		return "", fmt.Errorf("failed to build TwiML: %w", err)
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(c.config.FromNumber)
	params.SetTwiml(doc)

	resp, err := c.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("failed to create call: %w", err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("twilio returned no call sid")
	}
	return *resp.Sid, nil
}

package bridge

// audioRelay is the stateless pass-through between the two peers. Payloads
// are opaque base64 blobs forwarded unchanged, in arrival order, with no
// buffering beyond single-message framing.
type audioRelay struct {
	tel       TelephonyConn
	dlg       DialogueConn
	streamSid string

	// ready flips once the dialogue configuration handshake completed.
	// Caller audio arriving earlier is dropped silently: the callee is not
	// expected to speak before the agent's opening line, which is gated by
	// the same handshake.
	ready bool
}

// callerAudio forwards one chunk of caller audio to the dialogue service.
func (r *audioRelay) callerAudio(payload string) error {
	if !r.ready || r.dlg == nil {
		return nil
	}
	return r.dlg.AppendAudio(payload)
}

// agentAudio wraps one chunk of agent audio in the telephony media frame and
// forwards it verbatim.
func (r *audioRelay) agentAudio(payload string) error {
	return r.tel.SendMedia(r.streamSid, payload)
}

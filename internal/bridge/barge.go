package bridge

// bargeInController tracks whether the dialogue service is mid-response and
// decides when caller speech should cancel it. Owned by the session reactor;
// no locking needed.
type bargeInController struct {
	enabled bool

	// active is true only between a response start and its completion or
	// cancellation.
	active bool

	// suppress drops agent audio chunks that were already in flight when a
	// response was cancelled.
	suppress bool
}

func (b *bargeInController) responseStarted() {
	b.active = true
	b.suppress = false
}

func (b *bargeInController) responseDone() {
	b.active = false
	b.suppress = false
}

// speechStarted reports whether a cancellation should be issued for the
// in-flight response. At most one cancellation per response.
func (b *bargeInController) speechStarted() bool {
	if !b.enabled || !b.active {
		return false
	}
	b.active = false
	b.suppress = true
	return true
}

func (b *bargeInController) shouldForward() bool { return !b.suppress }

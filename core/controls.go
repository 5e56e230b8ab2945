package chat

// Cancel aborts the live exchange on the conversation, if any. It is safe to
// call at any time, from any goroutine, and repeatedly; cancellation is
// never reported as a failure.
func (c *Client) Cancel(conversationID int64) {
	c.activeSession(conversationID).Cancel()
}

// SessionPhase reports the lifecycle state of the live exchange on the
// conversation, or PhaseIdle when none is in flight.
func (c *Client) SessionPhase(conversationID int64) Phase {
	session := c.activeSession(conversationID)
	if session == nil {
		return PhaseIdle
	}

	return session.Phase()
}

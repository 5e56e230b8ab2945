package conversations

// Transcript receives finalized turns. It is mutated only once per turn, by
// the exchange that produced it; implementations decide how turns are
// persisted or displayed.
type Transcript interface {
	Append(turn Turn)
}

// ActiveContextV0 exposes live conversation state for callers that need a
// read view alongside the transcript.
type ActiveContextV0 interface {
	// Past turns only. Ordering: oldest -> newest.
	History() []Turn
}

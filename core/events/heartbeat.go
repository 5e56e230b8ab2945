package events

// KindHeartbeat identifies a liveness signal.
const KindHeartbeat Kind = "stream.heartbeat"

// Heartbeat signals the far end is still processing. It carries no content
// and never mutates accumulated state.
type Heartbeat struct{ Base }

// NewHeartbeat creates a heartbeat event.
func NewHeartbeat() Heartbeat {
	return Heartbeat{Base: NewBase(KindHeartbeat)}
}

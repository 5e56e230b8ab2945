package conversations

import "sync"

// InMemoryTranscript is a Transcript that keeps finalized turns in memory.
type InMemoryTranscript struct {
	mu    sync.RWMutex
	turns []Turn
}

var _ Transcript = (*InMemoryTranscript)(nil)
var _ ActiveContextV0 = (*InMemoryTranscript)(nil)

func NewInMemoryTranscript() *InMemoryTranscript {
	return &InMemoryTranscript{}
}

func (t *InMemoryTranscript) Append(turn Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.turns = append(t.turns, turn)
}

func (t *InMemoryTranscript) History() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	history := make([]Turn, len(t.turns))
	copy(history, t.turns)
	return history
}

// Len reports the number of appended turns.
func (t *InMemoryTranscript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.turns)
}

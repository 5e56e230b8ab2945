package events

import "context"

// Stream yields typed events decoded from one response exchange.
//
// The iterator stops after a terminal event (Completion or Failure) or when
// yield returns false. A non-nil error is yielded for transport-level
// problems; decode errors of individual frames are never surfaced here.
type Stream interface {
	Events(context.Context) func(func(Event, error) bool)
}

// Package events defines the typed event contract produced by the
// marketplace response stream.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - response.*
//   - approval.*
//   - stream.*
//
// Semantics used across the package:
//
//   - Delta: append-only text piece emitted in stream order.
//   - Payload: point-in-time replacement value (a later payload of the same
//     kind supersedes an earlier one within the same turn).
//   - Terminal: the event closes the stream; no further events follow it.
//
// response events
//
//   - TextDelta (response.delta): incremental assistant text to append to the
//     in-progress turn.
//   - ChartPayload (response.chart): chart specification attached to the
//     in-progress turn; replaces any chart already pending.
//   - ImageReference (response.image): reference to an image asset; the
//     binary is fetched out of band by id.
//
// approval events
//
//   - ApprovalRequest (approval.requested): flushes the accumulated text into
//     a finalized turn carrying the approval context and question. Not
//     terminal; the stream continues afterwards.
//
// stream events
//
//   - Completion (stream.completed): terminal success; may advertise a
//     dashboard retrievable by a follow-up call.
//   - Failure (stream.failed): terminal failure with a classified kind and a
//     human-readable message.
//   - Heartbeat (stream.heartbeat): liveness signal; carries no content.
package events

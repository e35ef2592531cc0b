// Package audit implements async event dispatching for token lifecycle events.
//
// # Components
//
//   - [Sink] is the interface for event consumers (channel, JSON writer, Redis stream, no-op).
//   - [Dispatcher] is a buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event] is a structured record with timestamp, type, subject, token id and reason.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Record raw tokens or secrets.
//   - Import tokenauth or any sibling internal package.
package audit

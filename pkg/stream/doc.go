// Package stream models the lifecycle of the terminal's streaming transport
// as an explicit state machine.
//
// A Conn owns one logical connection. It dials through a Transport, decodes
// inbound frames into Message envelopes, and fans them out to OnMessage
// subscribers in arrival order. Lifecycle transitions
// (connecting → connected → disconnected → reconnecting → error) are
// reported through OnStateChange before any message received after the
// transition is delivered.
//
// The Conn owns only the connection status and the raw message stream; it
// never interprets message payloads. Malformed frames are dropped and
// surfaced on the error channel rather than thrown at message subscribers.
package stream

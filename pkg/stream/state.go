package stream

// State is the lifecycle state of the streaming connection.
type State int

const (
	// StateConnecting is the initial state and the state entered by an
	// explicit Connect call.
	StateConnecting State = iota

	// StateConnected means the transport session is live and messages flow.
	StateConnected

	// StateDisconnected means the transport closed; entered either by the
	// remote side dropping or by an explicit Disconnect call.
	StateDisconnected

	// StateReconnecting means a retry is pending after a drop or failed dial.
	StateReconnecting

	// StateError means the retry budget is exhausted. Terminal until an
	// explicit Connect call re-enters StateConnecting.
	StateError
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

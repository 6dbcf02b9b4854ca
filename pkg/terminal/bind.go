package terminal

import (
	"encoding/json"
	"fmt"

	"github.com/aminchedo/Project-X-sub005/pkg/stream"
)

// Streamer is the slice of the connection machine the store binds to.
// *stream.Conn satisfies it.
type Streamer interface {
	OnStateChange(func(stream.State)) (cancel func())
	OnMessage(func(stream.Message)) (cancel func())
}

// Bind mirrors the machine's state into ConnectionStatus and routes typed
// stream messages into the matching setters. Every payload is a whole
// replacement value. The returned stop function detaches both routes.
func (s *Store) Bind(conn Streamer) (stop func()) {
	cancelState := conn.OnStateChange(s.SetConnectionStatus)
	cancelMsg := conn.OnMessage(s.apply)
	return func() {
		cancelState()
		cancelMsg()
	}
}

// apply dispatches one stream message. Unknown types are ignored; payloads
// that fail to decode surface as LastError, never as a panic into the
// message fan-out.
func (s *Store) apply(msg stream.Message) {
	var err error

	switch msg.Type {
	case "ticker":
		err = applyInto(msg.Data, s.SetTicker)
	case "order_book":
		err = applyInto(msg.Data, s.SetOrderBook)
	case "portfolio":
		err = applyInto(msg.Data, s.SetPortfolioSummary)
	case "pnl":
		err = applyInto(msg.Data, s.SetPnLSummary)
	case "risk":
		err = applyInto(msg.Data, s.SetRiskSnapshot)
	case "signal":
		err = applyInto(msg.Data, s.SetLastSignal)
	case "scan":
		var results []ScanResult
		if err = json.Unmarshal(msg.Data, &results); err == nil {
			s.SetScanResults(results)
		}
	default:
		s.logger.Debug("unhandled stream message", "type", msg.Type)
		return
	}

	if err != nil {
		s.logger.Warn("stream payload decode failed", "type", msg.Type, "error", err)
		s.SetLastError(fmt.Sprintf("bad %s payload: %v", msg.Type, err))
	}
}

// applyInto decodes data into a fresh T and hands it to set.
func applyInto[T any](data json.RawMessage, set func(*T)) error {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	set(v)
	return nil
}

// Package state provides the observable store primitive underlying every
// store in the terminal.
//
// A Store[T] holds a single snapshot value and notifies subscribers
// synchronously whenever the snapshot is replaced. Snapshots are immutable by
// convention: every change produces a new value, and Get always returns the
// current snapshot.
//
//	sym := state.New("BTCUSDT")
//	cancel := sym.Subscribe(func() {
//	    fmt.Println("symbol is now", sym.Get())
//	})
//	sym.Set("ETHUSDT") // subscriber runs before Set returns
//	cancel()
//
// Subscribers receive no arguments; they read the store themselves. This
// guarantees every subscriber in a notification cycle observes the same
// snapshot and avoids stale-closure bugs.
//
// The package also provides Debouncer and Throttler, the coalescing wrappers
// that sit between high-frequency producers (keystrokes, streaming ticks) and
// store setters to bound update rate.
package state

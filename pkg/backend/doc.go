// Package backend is the REST client for the trading backend. Every call
// returns a complete snapshot value decoded from the response; the caller
// replaces its previous snapshot wholesale instead of merging.
//
// Refresher polls the backend on a fixed interval and pushes each fresh
// snapshot into the terminal store, so the UI converges even when the
// streaming connection is down.
package backend

// Package client implements the observer side of the gateway's broadcast
// contract: snapshot-first ordering, wholesale full-state replacement on
// every message, silent dropping of malformed frames, and fixed-delay
// reconnection with a cancellable scheduled retry.
package client

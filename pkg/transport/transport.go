// Package transport dispatches transport booking requests to carrier
// protocol adapters (MRW, SEUR) and records the request/response lifecycle.
package transport

import (
	"context"
)

// Adapter defines the interface every carrier protocol integration implements.
type Adapter interface {
	// Protocol returns the protocol this adapter handles.
	Protocol() Protocol

	// Send builds the carrier payload from the request snapshot, boxes and
	// platform configuration, and performs the remote call. On failure it
	// may still return the exchange captured so far.
	Send(ctx context.Context, snap Snapshot, boxes []Box, cfg PlatformConfig) (*Exchange, error)
}

// Exchange holds the raw payloads of one remote call.
type Exchange struct {
	Request   []byte
	Response  []byte
	Reference string // carrier-assigned reference, when the carrier returns one
}

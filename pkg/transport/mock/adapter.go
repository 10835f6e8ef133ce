// Package mock provides a programmable transport adapter for testing.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tournevent/transports/pkg/transport"
)

// Call records one Send invocation.
type Call struct {
	Snapshot transport.Snapshot
	Boxes    []transport.Box
	Config   transport.PlatformConfig
}

// Adapter is a mock adapter for one protocol.
type Adapter struct {
	protocol transport.Protocol

	// OnSend overrides the default behaviour when set.
	OnSend func(ctx context.Context, snap transport.Snapshot, boxes []transport.Box, cfg transport.PlatformConfig) (*transport.Exchange, error)

	mu    sync.Mutex
	calls []Call
}

// New creates a mock adapter answering for protocol.
func New(protocol transport.Protocol) *Adapter {
	return &Adapter{protocol: protocol}
}

// Protocol returns the protocol this mock answers for.
func (a *Adapter) Protocol() transport.Protocol {
	return a.protocol
}

// Send records the call and returns a canned exchange.
func (a *Adapter) Send(ctx context.Context, snap transport.Snapshot, boxes []transport.Box, cfg transport.PlatformConfig) (*transport.Exchange, error) {
	a.mu.Lock()
	a.calls = append(a.calls, Call{Snapshot: snap, Boxes: boxes, Config: cfg})
	a.mu.Unlock()

	if a.OnSend != nil {
		return a.OnSend(ctx, snap, boxes, cfg)
	}
	if err := ctx.Err(); err != nil {
		return nil, transport.NewTransportFault(a.protocol, "mock", "context done").WithCause(err)
	}

	ref := uuid.New().String()[:8]
	return &transport.Exchange{
		Request:   []byte(fmt.Sprintf(`{"request":"%s","platform":"%s","boxes":%d}`, snap.ID, snap.Platform, len(boxes))),
		Response:  []byte(fmt.Sprintf(`{"reference":"%s"}`, ref)),
		Reference: ref,
	}, nil
}

// Calls returns the recorded Send invocations.
func (a *Adapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Call, len(a.calls))
	copy(out, a.calls)
	return out
}

var _ transport.Adapter = (*Adapter)(nil)

package queue

import (
	"context"

	"go.uber.org/zap"

	"compliance-backend/internal/shared/telemetry"
)

// Handler processes one decoded queue message.
type Handler func(ctx context.Context, msg Message) error

// MemoryClient dispatches messages synchronously to a handler. It backs
// the single-process deployment where no external queue is configured.
type MemoryClient struct {
	handler Handler
}

// NewMemoryClient constructs an in-process queue client.
func NewMemoryClient(handler Handler) *MemoryClient {
	return &MemoryClient{handler: handler}
}

// Send invokes the handler inline. Handler failures are logged and
// swallowed so callers keep queue-like fire-and-forget semantics;
// unprocessed findings remain eligible for the periodic learner sweep.
func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if m.handler == nil {
		return nil
	}
	if err := m.handler(ctx, msg); err != nil {
		telemetry.Warn("queue.memory.handler_failed",
			zap.String("finding_id", msg.FindingID),
			zap.Error(err),
		)
	}
	return nil
}

var _ Client = (*MemoryClient)(nil)

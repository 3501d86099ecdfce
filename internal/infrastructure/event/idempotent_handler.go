package event

import (
	"context"
	"sync/atomic"

	"github.com/immo/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// eventKeyPrefix keeps delivery keys apart from payment request keys in a
// shared idempotency store
const eventKeyPrefix = "event:"

// DeliveryStats counts what an IdempotentHandler did with its deliveries
type DeliveryStats struct {
	Handled    int64 `json:"handled"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler forwards each event ID to the wrapped handler at most
// once per TTL
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger

	handled    atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the idempotency configuration
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle forwards event unless its ID was already seen. A store failure
// lets the event through: a duplicate audit line beats a lost one.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.forward(ctx, event)
	}

	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	}
	isNew, err := h.store.MarkProcessed(ctx, eventKeyPrefix+event.EventID().String(), h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("idempotency store unavailable, delivering anyway", append(fields, zap.Error(err))...)
	case !isNew:
		h.duplicates.Add(1)
		h.logger.Debug("duplicate event skipped", fields...)
		return nil
	}
	return h.forward(ctx, event)
}

func (h *IdempotentHandler) forward(ctx context.Context, event shared.DomainEvent) error {
	if err := h.handler.Handle(ctx, event); err != nil {
		// the key stays marked; the event is not redelivered before the TTL
		h.failed.Add(1)
		return err
	}
	h.handled.Add(1)
	return nil
}

// Stats returns a snapshot of the delivery counters
func (h *IdempotentHandler) Stats() DeliveryStats {
	return DeliveryStats{
		Handled:    h.handled.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)

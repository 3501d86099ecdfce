package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_SkipsRedelivery(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := newRecordingHandler(finance.EventTypePaymentRecorded)
	h := NewIdempotentHandler(inner, store, zap.NewNop())
	event := newTestEvent(finance.EventTypePaymentRecorded)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Handle(context.Background(), event))
	}
	require.NoError(t, h.Handle(context.Background(), newTestEvent(finance.EventTypePaymentRecorded)))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, DeliveryStats{Handled: 2, Duplicates: 2}, h.Stats())
	assert.Equal(t, []string{finance.EventTypePaymentRecorded}, h.EventTypes())
}

func TestIdempotentHandler_KeysArePrefixed(t *testing.T) {
	store := new(MockIdempotencyStore)
	event := newTestEvent(finance.EventTypeCheckCleared)
	store.On("MarkProcessed", mock.Anything, "event:"+event.EventID().String(), 24*time.Hour).Return(true, nil)

	h := NewIdempotentHandler(newRecordingHandler(), store, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), event))
	store.AssertExpectations(t)
}

func TestIdempotentHandler_StoreFailureDelivers(t *testing.T) {
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))

	inner := newRecordingHandler()
	h := NewIdempotentHandler(inner, store, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), newTestEvent(finance.EventTypeCheckIssued)))

	assert.Equal(t, 1, inner.count())
}

func TestIdempotentHandler_FailureCounted(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := newRecordingHandler()
	inner.err = errors.New("sink closed")
	h := NewIdempotentHandler(inner, store, zap.NewNop())
	event := newTestEvent(finance.EventTypePaymentCancelled)

	assert.Error(t, h.Handle(context.Background(), event))
	assert.NoError(t, h.Handle(context.Background(), event), "a failed event is not redelivered before the TTL")
	assert.Equal(t, DeliveryStats{Failed: 1, Duplicates: 1}, h.Stats())
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := newRecordingHandler()
	h := NewIdempotentHandler(inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
	event := newTestEvent(finance.EventTypeCheckIssued)

	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Equal(t, 2, inner.count())
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

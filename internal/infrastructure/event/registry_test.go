package event

import (
	"testing"

	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("typed and wildcard handlers", func(t *testing.T) {
		r := NewHandlerRegistry()
		typed := newRecordingHandler()
		all := newRecordingHandler()
		r.Register(typed, finance.EventTypeCheckIssued, finance.EventTypeCheckCleared)
		r.Register(all)

		assert.Equal(t, []shared.EventHandler{typed, all}, r.GetHandlers(finance.EventTypeCheckIssued))
		assert.Equal(t, []shared.EventHandler{typed, all}, r.GetHandlers(finance.EventTypeCheckCleared))
		assert.Equal(t, []shared.EventHandler{all}, r.GetHandlers(finance.EventTypePaymentRecorded))
	})

	t.Run("registering twice keeps one entry", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newRecordingHandler()
		r.Register(h, finance.EventTypePaymentRecorded)
		r.Register(h, finance.EventTypePaymentRecorded)

		assert.Len(t, r.GetHandlers(finance.EventTypePaymentRecorded), 1)
	})

	t.Run("unregister removes from every type", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newRecordingHandler()
		other := newRecordingHandler()
		r.Register(h, finance.EventTypePaymentRecorded, finance.EventTypePaymentCancelled)
		r.Register(h)
		r.Register(other, finance.EventTypePaymentRecorded)

		r.Unregister(h)

		assert.Equal(t, []shared.EventHandler{other}, r.GetHandlers(finance.EventTypePaymentRecorded))
		assert.Empty(t, r.GetHandlers(finance.EventTypePaymentCancelled))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newRecordingHandler()
		r.Register(h, finance.EventTypeCheckCancelled)

		got := r.GetHandlers(finance.EventTypeCheckCancelled)
		got[0] = nil

		assert.Equal(t, []shared.EventHandler{h}, r.GetHandlers(finance.EventTypeCheckCancelled))
	})
}

package playground

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/fxreplay/fxreplay/src/eventmodels"
	"github.com/fxreplay/fxreplay/src/playground/models"
)

func TestProtectionBroker(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	newRequest := func() eventmodels.ProtectionChangeRequest {
		return eventmodels.NewProtectionChangeRequest(uuid.New(), 1, models.Protection{StopLoss: dp("1.0990")}, ts)
	}

	t.Run("resolve delivers the acknowledgement to the tracked callback", func(t *testing.T) {
		broker := NewProtectionBroker()
		req := newRequest()

		var received []eventmodels.ProtectionChangeAck
		broker.Track(req, func(ack eventmodels.ProtectionChangeAck) {
			received = append(received, ack)
		})
		assert.Equal(t, 1, broker.Pending())

		assert.NoError(t, broker.Resolve(eventmodels.ProtectionChangeAck{
			RequestID: req.RequestID,
			Rejected:  true,
			Reason:    "stop loss must be greater than 0",
		}))

		if assert.Len(t, received, 1) {
			assert.Equal(t, req.RequestID, received[0].RequestID)
			assert.True(t, received[0].Rejected)
			assert.Equal(t, "stop loss must be greater than 0", received[0].Reason)
		}
		assert.Equal(t, 0, broker.Pending())
	})

	t.Run("unknown request id fails", func(t *testing.T) {
		broker := NewProtectionBroker()
		err := broker.Resolve(eventmodels.ProtectionChangeAck{RequestID: uuid.New()})
		assert.Error(t, err)
	})

	t.Run("a request resolves at most once", func(t *testing.T) {
		broker := NewProtectionBroker()
		req := newRequest()

		fired := 0
		broker.Track(req, func(eventmodels.ProtectionChangeAck) {
			fired++
		})

		ack := eventmodels.ProtectionChangeAck{RequestID: req.RequestID}
		assert.NoError(t, broker.Resolve(ack))
		assert.Error(t, broker.Resolve(ack))
		assert.Equal(t, 1, fired)
	})

	t.Run("requests are tracked independently", func(t *testing.T) {
		broker := NewProtectionBroker()
		first, second := newRequest(), newRequest()

		var resolved []uuid.UUID
		broker.Track(first, func(ack eventmodels.ProtectionChangeAck) {
			resolved = append(resolved, ack.RequestID)
		})
		broker.Track(second, func(ack eventmodels.ProtectionChangeAck) {
			resolved = append(resolved, ack.RequestID)
		})
		assert.Equal(t, 2, broker.Pending())

		assert.NoError(t, broker.Resolve(eventmodels.ProtectionChangeAck{RequestID: second.RequestID}))
		assert.Equal(t, []uuid.UUID{second.RequestID}, resolved)
		assert.Equal(t, 1, broker.Pending())
	})
}

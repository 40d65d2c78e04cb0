package playground

import (
	"fmt"
	"time"

	"github.com/kataras/go-events"
	cache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/eventmodels"
)

// ProtectionBroker is the request-id-keyed table of in-flight protection
// change requests. The engine tracks a request and hands it to the venue
// adapter; whoever receives the venue's acknowledgement resolves the broker,
// which fires the tracked callback exactly once. Requests that are never
// acknowledged expire out of the table.
type ProtectionBroker struct {
	emitter  events.EventEmmiter
	inflight *cache.Cache
}

func NewProtectionBroker() *ProtectionBroker {
	return &ProtectionBroker{
		emitter:  events.New(),
		inflight: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (b *ProtectionBroker) Track(req eventmodels.ProtectionChangeRequest, fn func(eventmodels.ProtectionChangeAck)) {
	id := req.RequestID.String()
	b.inflight.Set(id, req, cache.DefaultExpiration)

	// On, not Once: a one-time listener re-emits its arguments wrapped in a
	// single []interface{}. Resolve removes the listener after the emit.
	b.emitter.On(events.EventName(id), func(payload ...interface{}) {
		if len(payload) == 0 {
			log.Errorf("protection change %s: acknowledgement without payload", id)
			return
		}

		ack, ok := payload[0].(eventmodels.ProtectionChangeAck)
		if !ok {
			log.Errorf("protection change %s: unexpected acknowledgement payload %T", id, payload[0])
			return
		}

		fn(ack)
	})
}

// Resolve delivers an acknowledgement for a tracked request and untracks it.
// Unknown, expired or already-resolved request ids are an error: the change
// was already abandoned.
func (b *ProtectionBroker) Resolve(ack eventmodels.ProtectionChangeAck) error {
	id := ack.RequestID.String()
	if _, found := b.inflight.Get(id); !found {
		return fmt.Errorf("protection change request %s is unknown or expired", id)
	}

	b.inflight.Delete(id)
	b.emitter.Emit(events.EventName(id), ack)
	b.emitter.RemoveAllListeners(events.EventName(id))
	return nil
}

// Pending reports the number of requests awaiting acknowledgement.
func (b *ProtectionBroker) Pending() int {
	return b.inflight.ItemCount()
}

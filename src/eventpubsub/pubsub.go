package eventpubsub

import (
	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/eventmodels"
)

// Listener receives every event published on the topic it subscribed to.
// Delivery is synchronous and in subscription order; a panicking listener is
// isolated and logged so it cannot abort tick processing or starve the other
// listeners.
type Listener func(event interface{})

// PubSub is an in-process publish/subscribe channel. Each engine owns its own
// instance (passed in at construction) so that test instances stay isolated.
type PubSub struct {
	bus EventBus.Bus
}

func New() *PubSub {
	return &PubSub{
		bus: EventBus.New(),
	}
}

func (ps *PubSub) Publish(topic eventmodels.EventName, event interface{}) {
	ps.bus.Publish(string(topic), event)
}

func (ps *PubSub) Subscribe(subscriberName string, topic eventmodels.EventName, fn Listener) error {
	wrapped := func(event interface{}) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("[%v] listener panic on topic %s: %v", subscriberName, topic, r)
			}
		}()

		fn(event)
	}

	if err := ps.bus.Subscribe(string(topic), wrapped); err != nil {
		return err
	}

	log.Debugf("[%v] subscribed to topic %s", subscriberName, topic)
	return nil
}

package router

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/eventmodels"
	"github.com/fxreplay/fxreplay/src/playground"
)

var streamedTopics = []eventmodels.EventName{
	eventmodels.TickEventName,
	eventmodels.OrderEventName,
	eventmodels.OrderExecuteEventName,
	eventmodels.OrderCancelEventName,
	eventmodels.OrderRejectEventName,
	eventmodels.TradeEventName,
	eventmodels.PeriodUpdateEventName,
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub mirrors a playground's events to every attached websocket client. It
// holds a single engine subscription per topic for the lifetime of the
// playground; clients come and go.
type Hub struct {
	mtx   sync.Mutex
	conns map[*websocket.Conn]bool
}

type streamEnvelope struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

func NewHub(p *playground.Playground) (*Hub, error) {
	hub := &Hub{
		conns: make(map[*websocket.Conn]bool),
	}

	for _, topic := range streamedTopics {
		topic := topic
		if err := p.On("event-stream", topic, func(event interface{}) {
			hub.broadcast(string(topic), event)
		}); err != nil {
			return nil, err
		}
	}

	return hub, nil
}

func (h *Hub) broadcast(topic string, event interface{}) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(streamEnvelope{Topic: topic, Data: event}); err != nil {
			log.Warnf("event stream: dropping client: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) attach(conn *websocket.Conn) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	h.conns[conn] = true
}

func (h *Hub) detach(conn *websocket.Conn) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	conn.Close()
	delete(h.conns, conn)
}

func (h *Hub) clientCount() int {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	return len(h.conns)
}

// readLoop drains inbound frames so close and ping frames are processed, and
// detaches the client as soon as the connection drops. The stream is
// write-only; any payloads received are discarded.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.detach(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPlayground(r)
	if err != nil {
		setErrorResponse("streamEvents: lookup", http.StatusNotFound, err, w)
		return
	}

	s.mtx.Lock()
	hub := s.eventStreams[p.ID]
	s.mtx.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("streamEvents: upgrade: %v", err)
		return
	}

	hub.attach(conn)
	go hub.readLoop(conn)
}

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fxreplay/fxreplay/src/playground"
	"github.com/fxreplay/fxreplay/src/playground/models"
)

func newStreamFixture(t *testing.T) (*playground.Playground, *Hub, *httptest.Server) {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	p, err := playground.NewPlayground(playground.NewClock(start), nil, nil, nil, nil,
		models.Instrument{Symbol: "EURUSD", BaseAsset: "EUR", QuoteAsset: "USD"})
	assert.NoError(t, err)

	hub, err := NewHub(p)
	assert.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		hub.attach(conn)
		go hub.readLoop(conn)
	}))
	t.Cleanup(srv.Close)

	return p, hub, srv
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)

	return conn
}

func TestHub_DetachesClosedClients(t *testing.T) {
	_, hub, srv := newStreamFixture(t)

	conn := dialStream(t, srv)
	assert.Eventually(t, func() bool { return hub.clientCount() == 1 }, time.Second, 10*time.Millisecond)

	assert.NoError(t, conn.Close())

	// the read pump notices the close frame and reaps the client without
	// waiting for the next broadcast to fail
	assert.Eventually(t, func() bool { return hub.clientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_StreamsEngineEvents(t *testing.T) {
	p, hub, srv := newStreamFixture(t)

	conn := dialStream(t, srv)
	defer conn.Close()
	assert.Eventually(t, func() bool { return hub.clientCount() == 1 }, time.Second, 10*time.Millisecond)

	start := p.GetCurrentTime()
	assert.NoError(t, p.RegisterSymbolTicks("EURUSD", []*models.Tick{
		models.NewTick("EURUSD", decimal.RequireFromString("1.1000"), decimal.RequireFromString("1.1002"), start.Add(1*time.Second)),
	}))

	_, err := p.ElapseTime(2)
	assert.NoError(t, err)

	var envelope struct {
		Topic string `json:"topic"`
	}

	assert.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	assert.NoError(t, conn.ReadJSON(&envelope))
	assert.Equal(t, "tick", envelope.Topic)
}

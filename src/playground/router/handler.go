package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/playground"
	"github.com/fxreplay/fxreplay/src/playground/models"
)

// Server is the HTTP driver surface for one process hosting any number of
// playground engines. It holds its own engine registry instead of a
// package-level map so multiple servers can coexist in tests.
type Server struct {
	mtx          sync.Mutex
	decoder      *schema.Decoder
	playgrounds  map[uuid.UUID]*playground.Playground
	eventStreams map[uuid.UUID]*Hub
}

func NewServer() *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Server{
		decoder:      decoder,
		playgrounds:  make(map[uuid.UUID]*playground.Playground),
		eventStreams: make(map[uuid.UUID]*Hub),
	}
}

func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/playgrounds", s.createPlayground).Methods("POST")
	r.HandleFunc("/playgrounds/{id}/ticks", s.registerTicks).Methods("POST")
	r.HandleFunc("/playgrounds/{id}/tick", s.tick).Methods("POST")
	r.HandleFunc("/playgrounds/{id}/clock", s.setClock).Methods("PUT")
	r.HandleFunc("/playgrounds/{id}/events", s.streamEvents).Methods("GET")
	r.HandleFunc("/playgrounds/{id}/accounts/{accountID}", s.getAccount).Methods("GET")
	r.HandleFunc("/playgrounds/{id}/accounts/{accountID}/orders", s.placeOrder).Methods("POST")
	r.HandleFunc("/playgrounds/{id}/accounts/{accountID}/orders/{orderID}", s.cancelOrder).Methods("DELETE")
	r.HandleFunc("/playgrounds/{id}/accounts/{accountID}/positions/{positionID}/protection", s.changeProtection).Methods("PUT")

	return r
}

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func setResponse(response interface{}, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf("setResponse: encode: %v", err)
	}
}

func setErrorResponse(errType string, statusCode int, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := errorResponse{Type: errType, Msg: err.Error()}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		log.Errorf("setErrorResponse: encode: %v", encodeErr)
	}
}

func (s *Server) lookupPlayground(r *http.Request) (*playground.Playground, error) {
	vars := mux.Vars(r)

	id, err := uuid.Parse(vars["id"])
	if err != nil {
		return nil, fmt.Errorf("invalid playground id: %w", err)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	p, found := s.playgrounds[id]
	if !found {
		return nil, fmt.Errorf("playground %s not found", id)
	}

	return p, nil
}

func parseAccountID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["accountID"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid account id: %w", err)
	}

	return id, nil
}

type CreateAccountRequest struct {
	PrimaryAsset string                     `json:"primary_asset"`
	Deposits     map[string]decimal.Decimal `json:"deposits"`
}

type CreatePlaygroundRequest struct {
	StartTime   time.Time              `json:"start_time"`
	Instruments []models.Instrument    `json:"instruments"`
	Accounts    []CreateAccountRequest `json:"accounts"`
}

type CreatePlaygroundResponse struct {
	PlaygroundID uuid.UUID   `json:"playground_id"`
	AccountIDs   []uuid.UUID `json:"account_ids"`
}

func (s *Server) createPlayground(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaygroundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setErrorResponse("createPlayground: decode request", http.StatusBadRequest, err, w)
		return
	}

	registry := playground.NewAccountRegistry()
	accountIDs := make([]uuid.UUID, 0, len(req.Accounts))
	for _, accountReq := range req.Accounts {
		account := models.NewAccount(accountReq.PrimaryAsset, accountReq.Deposits)
		registry.Add(account)
		accountIDs = append(accountIDs, account.ID())
	}

	p, err := playground.NewPlayground(playground.NewClock(req.StartTime), registry, nil, nil, nil, req.Instruments...)
	if err != nil {
		setErrorResponse("createPlayground: create", http.StatusBadRequest, err, w)
		return
	}

	hub, err := NewHub(p)
	if err != nil {
		setErrorResponse("createPlayground: event stream", http.StatusInternalServerError, err, w)
		return
	}

	s.mtx.Lock()
	s.playgrounds[p.ID] = p
	s.eventStreams[p.ID] = hub
	s.mtx.Unlock()

	setResponse(CreatePlaygroundResponse{PlaygroundID: p.ID, AccountIDs: accountIDs}, w)
}

type RegisterTicksRequest struct {
	Symbol string `json:"symbol"`
	Ticks  []struct {
		Timestamp time.Time       `json:"timestamp"`
		Bid       decimal.Decimal `json:"bid"`
		Ask       decimal.Decimal `json:"ask"`
	} `json:"ticks"`
}

func (s *Server) registerTicks(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPlayground(r)
	if err != nil {
		setErrorResponse("registerTicks: lookup", http.StatusNotFound, err, w)
		return
	}

	var req RegisterTicksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setErrorResponse("registerTicks: decode request", http.StatusBadRequest, err, w)
		return
	}

	ticks := make([]*models.Tick, 0, len(req.Ticks))
	for _, row := range req.Ticks {
		ticks = append(ticks, models.NewTick(req.Symbol, row.Bid, row.Ask, row.Timestamp))
	}

	if err := p.RegisterSymbolTicks(req.Symbol, ticks); err != nil {
		setErrorResponse("registerTicks: register", http.StatusBadRequest, err, w)
		return
	}

	setResponse(map[string]interface{}{"registered": len(ticks)}, w)
}

type tickQuery struct {
	Seconds int `schema:"seconds"`
	Ticks   int `schema:"ticks"`
}

func (s *Server) tick(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPlayground(r)
	if err != nil {
		setErrorResponse("tick: lookup", http.StatusNotFound, err, w)
		return
	}

	var query tickQuery
	if err := s.decoder.Decode(&query, r.URL.Query()); err != nil {
		setErrorResponse("tick: decode query", http.StatusBadRequest, err, w)
		return
	}

	var processed []*models.Tick
	if query.Ticks > 0 {
		processed, err = p.ElapseTicks(query.Ticks)
	} else {
		processed, err = p.ElapseTime(query.Seconds)
	}

	if err != nil {
		setErrorResponse("tick: elapse", http.StatusBadRequest, err, w)
		return
	}

	setResponse(map[string]interface{}{
		"current_time": p.GetCurrentTime().Format(time.RFC3339),
		"ticks":        processed,
	}, w)
}

type setClockRequest struct {
	Date time.Time `json:"date"`
}

func (s *Server) setClock(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPlayground(r)
	if err != nil {
		setErrorResponse("setClock: lookup", http.StatusNotFound, err, w)
		return
	}

	var req setClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setErrorResponse("setClock: decode request", http.StatusBadRequest, err, w)
		return
	}

	p.SetLocalDate(req.Date)
	setResponse(map[string]interface{}{"current_time": p.GetCurrentTime().Format(time.RFC3339)}, w)
}

type GetAccountResponse struct {
	Balance   decimal.Decimal               `json:"balance"`
	Equity    decimal.Decimal               `json:"equity"`
	Ledger    map[string]models.LedgerEntry `json:"ledger"`
	Positions []*models.PositionRecord      `json:"positions"`
	Pending   []*models.OrderRecord         `json:"pending_orders"`
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPlayground(r)
	if err != nil {
		setErrorResponse("getAccount: lookup", http.StatusNotFound, err, w)
		return
	}

	accountID, err := parseAccountID(r)
	if err != nil {
		setErrorResponse("getAccount: account id", http.StatusBadRequest, err, w)
		return
	}

	account, err := p.Accounts().Get(accountID)
	if err != nil {
		setErrorResponse("getAccount: account", http.StatusNotFound, err, w)
		return
	}

	equity, err := p.GetEquity(accountID)
	if err != nil {
		setErrorResponse("getAccount: equity", http.StatusInternalServerError, err, w)
		return
	}

	positions, err := p.GetOpenPositions(accountID)
	if err != nil {
		setErrorResponse("getAccount: positions", http.StatusInternalServerError, err, w)
		return
	}

	pending, err := p.GetPendingOrders(accountID)
	if err != nil {
		setErrorResponse("getAccount: pending orders", http.StatusInternalServerError, err, w)
		return
	}

	setResponse(GetAccountResponse{
		Balance:   account.Balance(),
		Equity:    equity,
		Ledger:    account.LedgerSnapshot(),
		Positions: positions,
		Pending:   pending,
	}, w)
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPlayground(r)
	if err != nil {
		setErrorResponse("placeOrder: lookup", http.StatusNotFound, err, w)
		return
	}

	accountID, err := parseAccountID(r)
	if err != nil {
		setErrorResponse("placeOrder: account id", http.StatusBadRequest, err, w)
		return
	}

	var directives models.OrderDirectives
	if err := json.NewDecoder(r.Body).Decode(&directives); err != nil {
		setErrorResponse("placeOrder: decode request", http.StatusBadRequest, err, w)
		return
	}

	order, err := p.PlaceOrder(accountID, directives)
	if err != nil {
		setErrorResponse("placeOrder: place", http.StatusBadRequest, err, w)
		return
	}

	setResponse(order.Record(), w)
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPlayground(r)
	if err != nil {
		setErrorResponse("cancelOrder: lookup", http.StatusNotFound, err, w)
		return
	}

	accountID, err := parseAccountID(r)
	if err != nil {
		setErrorResponse("cancelOrder: account id", http.StatusBadRequest, err, w)
		return
	}

	orderID, err := strconv.ParseUint(mux.Vars(r)["orderID"], 10, 64)
	if err != nil {
		setErrorResponse("cancelOrder: order id", http.StatusBadRequest, err, w)
		return
	}

	if err := p.CancelOrder(accountID, uint(orderID)); err != nil {
		setErrorResponse("cancelOrder: cancel", http.StatusBadRequest, err, w)
		return
	}

	setResponse(map[string]interface{}{"cancelled": orderID}, w)
}

func (s *Server) changeProtection(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPlayground(r)
	if err != nil {
		setErrorResponse("changeProtection: lookup", http.StatusNotFound, err, w)
		return
	}

	accountID, err := parseAccountID(r)
	if err != nil {
		setErrorResponse("changeProtection: account id", http.StatusBadRequest, err, w)
		return
	}

	positionID, err := strconv.ParseUint(mux.Vars(r)["positionID"], 10, 64)
	if err != nil {
		setErrorResponse("changeProtection: position id", http.StatusBadRequest, err, w)
		return
	}

	var protection models.Protection
	if err := json.NewDecoder(r.Body).Decode(&protection); err != nil {
		setErrorResponse("changeProtection: decode request", http.StatusBadRequest, err, w)
		return
	}

	resultCh, err := p.ChangeProtection(accountID, uint(positionID), protection)
	if err != nil {
		setErrorResponse("changeProtection: request", http.StatusBadRequest, err, w)
		return
	}

	select {
	case result := <-resultCh:
		if result.Err != nil {
			setErrorResponse("changeProtection: rejected", http.StatusUnprocessableEntity, result.Err, w)
			return
		}

		setResponse(map[string]interface{}{"request_id": result.RequestID}, w)
	case <-time.After(10 * time.Second):
		setErrorResponse("changeProtection: timeout", http.StatusGatewayTimeout, fmt.Errorf("no acknowledgement received"), w)
	}
}

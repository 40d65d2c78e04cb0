package playground

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/eventmodels"
	"github.com/fxreplay/fxreplay/src/eventpubsub"
	"github.com/fxreplay/fxreplay/src/playground/models"
	"github.com/fxreplay/fxreplay/src/utils"
)

// Playground is the deterministic market-replay and matching engine. It owns
// the clock, the tick store and all account state; external collaborators
// mutate state only through its public operations. A mutex keeps one
// tick-processing pipeline in flight at a time.
type Playground struct {
	ID uuid.UUID

	mutex     sync.Mutex
	clock     *Clock
	tickStore *TickStore
	pubsub    *eventpubsub.PubSub
	accounts  *AccountRegistry
	venue     VenueAdapter
	fees      FeeCustomizer
	broker    *ProtectionBroker
	lastTicks map[string]*models.Tick
}

func NewPlayground(clock *Clock, accounts *AccountRegistry, pubsub *eventpubsub.PubSub, venue VenueAdapter, fees FeeCustomizer, instruments ...models.Instrument) (*Playground, error) {
	if clock == nil {
		return nil, fmt.Errorf("clock must be set")
	}

	tickStore, err := NewTickStore(instruments...)
	if err != nil {
		return nil, err
	}

	if accounts == nil {
		accounts = NewAccountRegistry()
	}

	if pubsub == nil {
		pubsub = eventpubsub.New()
	}

	if venue == nil {
		venue = NewPaperVenue()
	}

	if fees == nil {
		fees = ZeroFees()
	}

	return &Playground{
		ID:        uuid.New(),
		clock:     clock,
		tickStore: tickStore,
		pubsub:    pubsub,
		accounts:  accounts,
		venue:     venue,
		fees:      fees,
		broker:    NewProtectionBroker(),
		lastTicks: make(map[string]*models.Tick),
	}, nil
}

func (p *Playground) Accounts() *AccountRegistry {
	return p.accounts
}

func (p *Playground) GetCurrentTime() time.Time {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.clock.CurrentTime
}

// GetLastTick returns the most recently processed tick for the symbol, or nil
// if none has been processed since the last clock reset.
func (p *Playground) GetLastTick(symbol string) *models.Tick {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.lastTicks[symbol]
}

// On registers a listener for an engine event topic. Tick, order and trade
// listeners run synchronously during tick processing and must not call back
// into the engine; period-update listeners run after the processing lock is
// released and may.
func (p *Playground) On(subscriberName string, topic eventmodels.EventName, fn eventpubsub.Listener) error {
	return p.pubsub.Subscribe(subscriberName, topic, fn)
}

// RegisterSymbolTicks loads replay data for a registered symbol.
func (p *Playground) RegisterSymbolTicks(symbol string, ticks []*models.Tick) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.tickStore.RegisterTicks(symbol, ticks)
}

// RemainingTicks reports how many registered ticks have not been consumed yet.
func (p *Playground) RemainingTicks() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.tickStore.RemainingTicks()
}

// SetLocalDate resets the clock to the given time. This is the only way the
// clock can move backward; it also invalidates all tick consumption cursors
// and the last-tick cache.
func (p *Playground) SetLocalDate(date time.Time) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.clock.CurrentTime = date
	p.tickStore.ResetCursors()
	p.lastTicks = make(map[string]*models.Tick)
}

// ElapseTime advances the clock by the given number of seconds, feeding every
// due tick through the settlement pipeline in global timestamp order. The
// clock lands exactly on T+seconds even if no ticks fell in the window.
// Returns the processed ticks in processing order.
func (p *Playground) ElapseTime(seconds int) ([]*models.Tick, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("cannot elapse negative time: %d", seconds)
	}

	p.mutex.Lock()

	prev := p.clock.CurrentTime
	target := prev.Add(time.Duration(seconds) * time.Second)

	ticks := p.tickStore.ConsumeUpTo(prev, target)
	for _, tick := range ticks {
		p.clock.CurrentTime = tick.Timestamp
		p.processTick(tick)
	}

	p.clock.CurrentTime = target

	// published outside the lock so listeners may read engine state
	p.mutex.Unlock()

	p.pubsub.Publish(eventmodels.PeriodUpdateEventName, eventmodels.PeriodUpdateEvent{
		Start:          prev,
		End:            target,
		TicksProcessed: len(ticks),
	})

	return ticks, nil
}

// ElapseTicks consumes up to count next ticks per symbol and feeds them to
// the settlement pipeline in per-symbol order. This is deliberately narrower
// than ElapseTime: ticks are not re-sorted across symbols and the clock only
// moves as far as tick processing implies.
func (p *Playground) ElapseTicks(count int) ([]*models.Tick, error) {
	if count <= 0 {
		return nil, fmt.Errorf("tick count must be greater than 0: %d", count)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	ticks := p.tickStore.ConsumeNext(count)
	for _, tick := range ticks {
		if tick.Timestamp.After(p.clock.CurrentTime) {
			p.clock.CurrentTime = tick.Timestamp
		}

		p.processTick(tick)
	}

	return ticks, nil
}

// processTick is the fixed settlement pipeline: cache the quote, publish the
// tick event, activate crossed pending orders, then check position
// protection. Positions opened during step 3 are first protection-checked on
// the next tick; there is no same-tick re-entrancy.
func (p *Playground) processTick(tick *models.Tick) {
	p.lastTicks[tick.Symbol] = tick

	p.pubsub.Publish(eventmodels.TickEventName, eventmodels.TickEvent{Tick: tick})

	p.evaluatePendingOrders(tick)
	p.evaluateProtections(tick)
}

func (p *Playground) evaluatePendingOrders(tick *models.Tick) {
	for _, account := range p.accounts.Iter() {
		for _, order := range account.PendingOrders() {
			if order.Duration() == models.Day && !p.clock.CurrentTime.Before(utils.EndOfDay(order.CreateDate())) {
				if err := order.Expire(p.clock.CurrentTime); err != nil {
					log.Warnf("evaluatePendingOrders: expire order %d: %v", order.ID(), err)
					continue
				}

				p.pubsub.Publish(eventmodels.OrderCancelEventName, eventmodels.OrderEvent{AccountID: account.ID(), Order: order})
				continue
			}

			if order.Symbol() != tick.Symbol {
				continue
			}

			if order.CrossedBy(tick.Bid, tick.Ask) {
				if err := p.executeOrder(account, order, tick); err != nil {
					log.Warnf("evaluatePendingOrders: order %d rejected: %v", order.ID(), err)
				}
			}
		}
	}
}

func (p *Playground) evaluateProtections(tick *models.Tick) {
	for _, account := range p.accounts.Iter() {
		for _, position := range account.OpenPositions() {
			if position.Symbol() != tick.Symbol {
				continue
			}

			position.RatchetTrailingStop(tick.Bid, tick.Ask, p.clock.CurrentTime)

			var reason string
			if position.StopLossTriggered(tick.Bid, tick.Ask) {
				reason = "stop loss"
			} else if position.TakeProfitTriggered(tick.Bid, tick.Ask) {
				reason = "take profit"
			} else {
				continue
			}

			if err := p.closePosition(account, position, tick, reason); err != nil {
				log.Errorf("evaluateProtections: close position %d (%s): %v", position.ID(), reason, err)
			}
		}
	}
}

// closePosition routes a protection-triggered close through the normal order
// path: a close-purpose market order for the full remaining volume. There is
// no separate settlement path for protection closes.
func (p *Playground) closePosition(account *models.Account, position *models.Position, tick *models.Tick, reason string) error {
	now := p.clock.CurrentTime
	positionID := position.ID()

	direction := models.Sell
	if position.Direction() == models.Short {
		direction = models.Buy
	}

	order := models.NewOrder(account.NextOrderID(), position.Symbol(), models.OrderPurposeClose, models.OrderDirectives{
		PositionID: &positionID,
		Direction:  direction,
		Volume:     position.Volume(),
	}, now)

	if err := order.Accept(now); err != nil {
		return err
	}

	account.AddOrder(order)
	p.pubsub.Publish(eventmodels.OrderEventName, eventmodels.OrderEvent{AccountID: account.ID(), Order: order})

	log.Infof("closing position %d at %s (%s)", position.ID(), tick.Timestamp.Format(time.RFC3339), reason)

	return p.executeOrder(account, order, tick)
}

// PlaceOrder validates the directives, creates the order and accepts it
// synchronously. Market orders attempt execution immediately against the last
// known tick; limit/stop orders move to pending and are additionally
// evaluated against the last known tick right away.
//
// Directive validation failures return an error and create no order; failures
// at execution time reject the order instead (terminal, queryable, no ledger
// mutation).
func (p *Playground) PlaceOrder(accountID uuid.UUID, directives models.OrderDirectives) (*models.Order, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	account, err := p.accounts.Get(accountID)
	if err != nil {
		return nil, err
	}

	if err := directives.Validate(); err != nil {
		return nil, err
	}

	symbol := directives.Symbol
	purpose := models.OrderPurposeOpen

	if directives.PositionID != nil {
		purpose = models.OrderPurposeClose

		position := account.FindPosition(*directives.PositionID)
		if position == nil {
			return nil, fmt.Errorf("%w: position %d", models.ErrPositionNotFound, *directives.PositionID)
		}

		if position.IsClosed() {
			return nil, fmt.Errorf("%w: position %d", models.ErrPositionClosed, *directives.PositionID)
		}

		if symbol == "" {
			symbol = position.Symbol()
		} else if symbol != position.Symbol() {
			return nil, fmt.Errorf("%w: symbol %s does not match position %d", models.ErrInvalidDirectives, symbol, *directives.PositionID)
		}

		if models.PositionDirectionFor(directives.Direction.Opposite()) != position.Direction() {
			return nil, fmt.Errorf("%w: a %s order cannot close a %s position", models.ErrInvalidDirectives, directives.Direction, position.Direction())
		}
	}

	instrument, err := p.tickStore.Instrument(symbol)
	if err != nil {
		return nil, err
	}

	if err := p.venue.NormalizeOrder(instrument, directives); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidDirectives, err)
	}

	now := p.clock.CurrentTime
	order := models.NewOrder(account.NextOrderID(), symbol, purpose, directives, now)

	if err := order.Accept(now); err != nil {
		return nil, err
	}

	account.AddOrder(order)
	p.pubsub.Publish(eventmodels.OrderEventName, eventmodels.OrderEvent{AccountID: account.ID(), Order: order})

	lastTick := p.lastTicks[symbol]

	if order.IsMarket() {
		if lastTick == nil {
			p.rejectOrder(account, order, models.ErrNoPriceAvailable)
			return order, nil
		}

		if err := p.executeOrder(account, order, lastTick); err != nil {
			log.Warnf("PlaceOrder: market order %d rejected: %v", order.ID(), err)
		}

		return order, nil
	}

	if err := order.MarkPending(now); err != nil {
		return nil, err
	}

	// a pending order may cross on the existing last tick before any new
	// tick arrives
	if lastTick != nil && order.CrossedBy(lastTick.Bid, lastTick.Ask) {
		if err := p.executeOrder(account, order, lastTick); err != nil {
			log.Warnf("PlaceOrder: pending order %d rejected: %v", order.ID(), err)
		}
	}

	return order, nil
}

// CancelOrder cancels a pending order. Orders in any other state cannot be
// cancelled.
func (p *Playground) CancelOrder(accountID uuid.UUID, orderID uint) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	account, err := p.accounts.Get(accountID)
	if err != nil {
		return err
	}

	order := account.FindOrder(orderID)
	if order == nil {
		return fmt.Errorf("%w: order %d", models.ErrOrderNotFound, orderID)
	}

	if err := order.Cancel(p.clock.CurrentTime); err != nil {
		return err
	}

	p.pubsub.Publish(eventmodels.OrderCancelEventName, eventmodels.OrderEvent{AccountID: account.ID(), Order: order})
	return nil
}

// executeOrder is the shared settlement path for market and pending-order
// execution. A buy withdraws the quote asset valued at the ask and deposits
// the base asset; a sell withdraws the base asset and deposits the quote
// asset valued at the bid. Validation happens before any ledger mutation so a
// rejection is all-or-nothing.
func (p *Playground) executeOrder(account *models.Account, order *models.Order, tick *models.Tick) error {
	instrument, err := p.tickStore.Instrument(order.Symbol())
	if err != nil {
		p.rejectOrder(account, order, err)
		return err
	}

	now := p.clock.CurrentTime
	volume := order.Volume()

	var price decimal.Decimal
	var withdrawAsset, depositAsset string
	var withdrawAmount, depositAmount decimal.Decimal

	if order.Direction() == models.Buy {
		price = tick.Ask
		withdrawAsset, withdrawAmount = instrument.QuoteAsset, volume.Mul(price)
		depositAsset, depositAmount = instrument.BaseAsset, volume
	} else {
		price = tick.Bid
		withdrawAsset, withdrawAmount = instrument.BaseAsset, volume
		depositAsset, depositAmount = instrument.QuoteAsset, volume.Mul(price)
	}

	position, isNewPosition, err := p.resolvePosition(account, order)
	if err != nil {
		p.rejectOrder(account, order, err)
		return err
	}

	if account.AssetBalance(withdrawAsset).FreeVolume.LessThan(withdrawAmount) {
		p.rejectOrder(account, order, models.ErrNotEnoughMoney)
		return models.ErrNotEnoughMoney
	}

	account.Withdraw(withdrawAsset, withdrawAmount)
	account.Deposit(depositAsset, depositAmount)

	trade := models.NewTrade(account.NextTradeID(), order.ID(), position.ID(), order.Symbol(), volume, order.Direction(), order.Purpose(), price, now)

	if order.Purpose() == models.OrderPurposeClose {
		closedVolume := decimal.Min(volume, position.Volume())

		var gross decimal.Decimal
		if position.Direction() == models.Long {
			gross = price.Sub(position.AvgPrice()).Mul(closedVolume)
		} else {
			gross = position.AvgPrice().Sub(price).Mul(closedVolume)
		}

		trade.GrossProfit = gross
		trade.GrossProfitAsset = instrument.QuoteAsset
	}

	// commission and swap are withdrawn after the principal exchange
	commissionAsset, commission := p.fees.Commission(instrument, volume, price, now)
	trade.CommissionAsset, trade.Commission = p.chargeFee(account, commissionAsset, commission, "commission")

	swapAsset, swap := p.fees.Swap(instrument, volume, price, now)
	trade.SwapAsset, trade.Swap = p.chargeFee(account, swapAsset, swap, "swap")

	if err := order.Execute(trade, now); err != nil {
		return fmt.Errorf("executeOrder: %w", err)
	}

	if order.Purpose() == models.OrderPurposeOpen {
		if isNewPosition {
			account.AddPosition(position)
		}

		if err := position.Increase(volume, price, now); err != nil {
			return fmt.Errorf("executeOrder: %w", err)
		}

		if protection := order.RequestedProtection(); protection != nil {
			if err := position.SetProtection(*protection, now); err != nil {
				log.Warnf("executeOrder: set protection on position %d: %v", position.ID(), err)
			}
		}
	} else {
		if err := position.Reduce(volume, price, now); err != nil {
			return fmt.Errorf("executeOrder: %w", err)
		}
	}

	p.pubsub.Publish(eventmodels.OrderExecuteEventName, eventmodels.OrderEvent{AccountID: account.ID(), Order: order})
	p.pubsub.Publish(eventmodels.TradeEventName, eventmodels.TradeEvent{AccountID: account.ID(), Trade: trade})

	return nil
}

// resolvePosition finds or creates the position an order settles against,
// without mutating account state: a newly created position is only attached
// to the account once the trade goes through.
func (p *Playground) resolvePosition(account *models.Account, order *models.Order) (*models.Position, bool, error) {
	if order.Purpose() == models.OrderPurposeClose {
		var position *models.Position
		if id := order.PositionID(); id != nil {
			position = account.FindPosition(*id)
		} else {
			// a close without an explicit target closes the exposure on the
			// opposite side of the order's direction
			position = account.FindOpenPosition(order.Symbol(), models.PositionDirectionFor(order.Direction().Opposite()))
		}

		if position == nil || position.IsClosed() {
			return nil, false, models.ErrPositionNotFound
		}

		return position, false, nil
	}

	direction := models.PositionDirectionFor(order.Direction())
	if position := account.FindOpenPosition(order.Symbol(), direction); position != nil {
		return position, false, nil
	}

	return models.NewPosition(account.NextPositionID(), order.Symbol(), direction, p.clock.CurrentTime), true, nil
}

// chargeFee withdraws a commission or swap charge, defaulting the asset to
// the account's primary asset. The charge is clamped to the free balance: a
// fee can drain an account but never drive a ledger entry negative.
func (p *Playground) chargeFee(account *models.Account, asset string, amount decimal.Decimal, kind string) (string, decimal.Decimal) {
	if asset == "" {
		asset = account.PrimaryAsset()
	}

	if !amount.IsPositive() {
		return asset, decimal.Zero
	}

	free := account.AssetBalance(asset).FreeVolume
	if free.LessThan(amount) {
		log.Warnf("chargeFee: %s charge %s %s exceeds free balance %s", kind, amount, asset, free)
		amount = free
	}

	account.Withdraw(asset, amount)
	return asset, amount
}

func (p *Playground) rejectOrder(account *models.Account, order *models.Order, reason error) {
	if err := order.Reject(reason, p.clock.CurrentTime); err != nil {
		log.Errorf("rejectOrder: %v", err)
		return
	}

	p.pubsub.Publish(eventmodels.OrderRejectEventName, eventmodels.OrderEvent{AccountID: account.ID(), Order: order})
}

// ProtectionChangeResult resolves a ChangeProtection call once the venue has
// acknowledged or rejected the request.
type ProtectionChangeResult struct {
	RequestID uuid.UUID
	Err       error
}

// ChangeProtection asynchronously updates a position's stop-loss /
// take-profit / trailing-stop-loss. Local protection state changes only after
// the venue acknowledges the request; the returned channel resolves with the
// outcome.
func (p *Playground) ChangeProtection(accountID uuid.UUID, positionID uint, protection models.Protection) (<-chan ProtectionChangeResult, error) {
	p.mutex.Lock()

	account, err := p.accounts.Get(accountID)
	if err != nil {
		p.mutex.Unlock()
		return nil, err
	}

	position := account.FindPosition(positionID)
	if position == nil {
		p.mutex.Unlock()
		return nil, fmt.Errorf("%w: position %d", models.ErrPositionNotFound, positionID)
	}

	if position.IsClosed() {
		p.mutex.Unlock()
		return nil, fmt.Errorf("%w: position %d", models.ErrPositionClosed, positionID)
	}

	req := eventmodels.NewProtectionChangeRequest(accountID, positionID, protection, p.clock.CurrentTime)
	result := make(chan ProtectionChangeResult, 1)

	p.broker.Track(req, func(ack eventmodels.ProtectionChangeAck) {
		if ack.Rejected {
			result <- ProtectionChangeResult{RequestID: req.RequestID, Err: fmt.Errorf("protection change rejected: %s", ack.Reason)}
		} else {
			p.mutex.Lock()
			err := position.SetProtection(protection, p.clock.CurrentTime)
			p.mutex.Unlock()

			result <- ProtectionChangeResult{RequestID: req.RequestID, Err: err}
		}

		p.pubsub.Publish(eventmodels.ProtectionChangeAckEventName, ack)
	})

	// release before handing off: a synchronous venue resolves the broker
	// inside this call
	p.mutex.Unlock()

	p.pubsub.Publish(eventmodels.ProtectionChangeRequestEventName, req)
	p.venue.RequestProtectionChange(req, p.broker)

	return result, nil
}

// GetBalance returns the free volume of the account's primary asset.
func (p *Playground) GetBalance(accountID uuid.UUID) (decimal.Decimal, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	account, err := p.accounts.Get(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance(), nil
}

func (p *Playground) GetAssetBalance(accountID uuid.UUID, asset string) (models.LedgerEntry, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	account, err := p.accounts.Get(accountID)
	if err != nil {
		return models.LedgerEntry{}, err
	}

	return account.AssetBalance(asset), nil
}

func (p *Playground) GetOpenPositions(accountID uuid.UUID) ([]*models.PositionRecord, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	account, err := p.accounts.Get(accountID)
	if err != nil {
		return nil, err
	}

	positions := account.OpenPositions()
	records := make([]*models.PositionRecord, 0, len(positions))
	for _, position := range positions {
		records = append(records, position.Record())
	}

	return records, nil
}

func (p *Playground) GetPendingOrders(accountID uuid.UUID) ([]*models.OrderRecord, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	account, err := p.accounts.Get(accountID)
	if err != nil {
		return nil, err
	}

	orders := account.PendingOrders()
	records := make([]*models.OrderRecord, 0, len(orders))
	for _, order := range orders {
		records = append(records, order.Record())
	}

	return records, nil
}

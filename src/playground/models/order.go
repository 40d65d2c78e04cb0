package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents an intent to open or close exposure. Internals are
// unexported: the settlement engine is the only writer, everyone else reads
// through accessors. A terminal order is never deleted and remains queryable.
type Order struct {
	id           uint
	symbol       string
	direction    OrderDirection
	purpose      OrderPurpose
	volume       decimal.Decimal
	limitPrice   *decimal.Decimal
	stopPrice    *decimal.Decimal
	positionID   *uint
	protection   *Protection
	duration     OrderDuration
	status       OrderStatus
	rejectReason *string
	createDate   time.Time
	updateDate   time.Time
	trades       []*Trade
}

func NewOrder(id uint, symbol string, purpose OrderPurpose, directives OrderDirectives, createDate time.Time) *Order {
	duration := directives.Duration
	if duration == "" {
		duration = GTC
	}

	return &Order{
		id:         id,
		symbol:     symbol,
		direction:  directives.Direction,
		purpose:    purpose,
		volume:     directives.Volume,
		limitPrice: directives.LimitPrice,
		stopPrice:  directives.StopPrice,
		positionID: directives.PositionID,
		protection: directives.Protection,
		duration:   duration,
		status:     OrderStatusRequested,
		createDate: createDate,
		updateDate: createDate,
		trades:     []*Trade{},
	}
}

func (o *Order) ID() uint {
	return o.id
}

func (o *Order) Symbol() string {
	return o.symbol
}

func (o *Order) Direction() OrderDirection {
	return o.direction
}

func (o *Order) Purpose() OrderPurpose {
	return o.purpose
}

func (o *Order) Volume() decimal.Decimal {
	return o.volume
}

func (o *Order) LimitPrice() *decimal.Decimal {
	return o.limitPrice
}

func (o *Order) StopPrice() *decimal.Decimal {
	return o.stopPrice
}

func (o *Order) PositionID() *uint {
	return o.positionID
}

// RequestedProtection is the protection the caller asked to attach to the
// position resulting from this order, applied on execution of open orders.
func (o *Order) RequestedProtection() *Protection {
	return o.protection
}

func (o *Order) Duration() OrderDuration {
	return o.duration
}

func (o *Order) Status() OrderStatus {
	return o.status
}

func (o *Order) RejectReason() *string {
	return o.rejectReason
}

func (o *Order) CreateDate() time.Time {
	return o.createDate
}

func (o *Order) LastUpdateDate() time.Time {
	return o.updateDate
}

func (o *Order) Trades() []*Trade {
	out := make([]*Trade, len(o.trades))
	copy(out, o.trades)
	return out
}

// IsMarket reports whether the order carries neither a limit nor a stop price
// and therefore attempts execution immediately upon acceptance.
func (o *Order) IsMarket() bool {
	return o.limitPrice == nil && o.stopPrice == nil
}

// CrossedBy reports whether the given quote satisfies the order's limit or
// stop condition. The limit condition is checked before the stop condition;
// either one triggers execution.
func (o *Order) CrossedBy(bid, ask decimal.Decimal) bool {
	if o.limitPrice != nil {
		if o.direction == Sell && bid.GreaterThanOrEqual(*o.limitPrice) {
			return true
		}

		if o.direction == Buy && ask.LessThanOrEqual(*o.limitPrice) {
			return true
		}
	}

	if o.stopPrice != nil {
		if o.direction == Sell && bid.LessThanOrEqual(*o.stopPrice) {
			return true
		}

		if o.direction == Buy && ask.GreaterThanOrEqual(*o.stopPrice) {
			return true
		}
	}

	return false
}

func (o *Order) Accept(at time.Time) error {
	if o.status != OrderStatusRequested {
		return fmt.Errorf("cannot accept order %d in status %s", o.id, o.status)
	}

	o.status = OrderStatusAccepted
	o.updateDate = at
	return nil
}

func (o *Order) MarkPending(at time.Time) error {
	if o.status != OrderStatusAccepted {
		return fmt.Errorf("cannot mark order %d pending in status %s", o.id, o.status)
	}

	o.status = OrderStatusPending
	o.updateDate = at
	return nil
}

// Execute attaches the trade produced by a successful match and moves the
// order to its terminal executed state.
func (o *Order) Execute(trade *Trade, at time.Time) error {
	if !o.status.IsTradingAllowed() {
		return fmt.Errorf("cannot execute order %d in status %s", o.id, o.status)
	}

	if trade == nil {
		return fmt.Errorf("cannot execute order %d without a trade", o.id)
	}

	o.trades = append(o.trades, trade)
	o.status = OrderStatusExecuted
	o.updateDate = at
	return nil
}

func (o *Order) Cancel(at time.Time) error {
	if o.status != OrderStatusPending {
		return fmt.Errorf("%w: order %d is %s", ErrOrderNotPending, o.id, o.status)
	}

	o.status = OrderStatusCancelled
	o.updateDate = at
	return nil
}

func (o *Order) Expire(at time.Time) error {
	if o.status != OrderStatusPending {
		return fmt.Errorf("%w: order %d is %s", ErrOrderNotPending, o.id, o.status)
	}

	o.status = OrderStatusExpired
	o.updateDate = at
	return nil
}

func (o *Order) Reject(reason error, at time.Time) error {
	if o.status.IsTerminal() {
		return fmt.Errorf("cannot reject order %d in status %s", o.id, o.status)
	}

	msg := reason.Error()
	o.rejectReason = &msg
	o.status = OrderStatusRejected
	o.updateDate = at
	return nil
}

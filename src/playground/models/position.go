package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Position is the aggregated open exposure for one symbol/direction pair.
// Volume is always non-negative; once it reaches zero the position is closed
// and terminal. Only the settlement engine mutates a position.
type Position struct {
	id         uint
	symbol     string
	direction  PositionDirection
	volume     decimal.Decimal
	avgPrice   decimal.Decimal
	protection Protection
	closed     bool
	openDate   time.Time
	updateDate time.Time
}

func NewPosition(id uint, symbol string, direction PositionDirection, openDate time.Time) *Position {
	return &Position{
		id:         id,
		symbol:     symbol,
		direction:  direction,
		openDate:   openDate,
		updateDate: openDate,
	}
}

func (p *Position) ID() uint {
	return p.id
}

func (p *Position) Symbol() string {
	return p.symbol
}

func (p *Position) Direction() PositionDirection {
	return p.direction
}

func (p *Position) Volume() decimal.Decimal {
	return p.volume
}

// AvgPrice is the volume-weighted average execution price of the open trades
// backing the position. It resets to the reversing trade's price on reversal.
func (p *Position) AvgPrice() decimal.Decimal {
	return p.avgPrice
}

func (p *Position) Protection() Protection {
	return p.protection
}

func (p *Position) IsClosed() bool {
	return p.closed
}

func (p *Position) OpenDate() time.Time {
	return p.openDate
}

func (p *Position) LastUpdateDate() time.Time {
	return p.updateDate
}

// Increase applies an open-purpose trade to the position.
func (p *Position) Increase(volume, price decimal.Decimal, at time.Time) error {
	if p.closed {
		return fmt.Errorf("%w: position %d", ErrPositionClosed, p.id)
	}

	if !volume.IsPositive() {
		return fmt.Errorf("position %d: increase volume must be greater than 0", p.id)
	}

	total := p.volume.Add(volume)
	p.avgPrice = p.avgPrice.Mul(p.volume).Add(price.Mul(volume)).Div(total)
	p.volume = total
	p.updateDate = at
	return nil
}

// Reduce applies a close-purpose trade. If the trade volume exceeds the
// position volume, the position reverses: its direction flips and the excess
// becomes the new volume, carried at the trade's price. If the volumes match
// exactly the position closes and becomes terminal.
func (p *Position) Reduce(volume, price decimal.Decimal, at time.Time) error {
	if p.closed {
		return fmt.Errorf("%w: position %d", ErrPositionClosed, p.id)
	}

	if !volume.IsPositive() {
		return fmt.Errorf("position %d: reduce volume must be greater than 0", p.id)
	}

	diff := volume.Sub(p.volume)
	p.updateDate = at

	if diff.IsPositive() {
		p.direction = p.direction.Opposite()
		p.volume = diff
		p.avgPrice = price
		return nil
	}

	if diff.IsZero() {
		p.volume = decimal.Zero
		p.closed = true
		return nil
	}

	p.volume = p.volume.Sub(volume)
	return nil
}

func (p *Position) SetProtection(protection Protection, at time.Time) error {
	if p.closed {
		return fmt.Errorf("%w: position %d", ErrPositionClosed, p.id)
	}

	if err := protection.Validate(); err != nil {
		return fmt.Errorf("position %d: %w", p.id, err)
	}

	p.protection = protection
	p.updateDate = at
	return nil
}

// StopLossTriggered checks the quote against the stop-loss level. A long
// position closes when bid <= stopLoss; a short position when ask >= stopLoss.
func (p *Position) StopLossTriggered(bid, ask decimal.Decimal) bool {
	if p.closed || p.protection.StopLoss == nil {
		return false
	}

	if p.direction == Long {
		return bid.LessThanOrEqual(*p.protection.StopLoss)
	}

	return ask.GreaterThanOrEqual(*p.protection.StopLoss)
}

// TakeProfitTriggered checks the quote against the take-profit level. A long
// position closes when bid >= takeProfit; a short position when ask <= takeProfit.
func (p *Position) TakeProfitTriggered(bid, ask decimal.Decimal) bool {
	if p.closed || p.protection.TakeProfit == nil {
		return false
	}

	if p.direction == Long {
		return bid.GreaterThanOrEqual(*p.protection.TakeProfit)
	}

	return ask.LessThanOrEqual(*p.protection.TakeProfit)
}

// RatchetTrailingStop moves the stop-loss toward the market so that it trails
// the current quote by the configured distance. The stop-loss only ever
// tightens: it is raised for longs and lowered for shorts, never loosened.
// Returns true if the stop-loss moved.
func (p *Position) RatchetTrailingStop(bid, ask decimal.Decimal, at time.Time) bool {
	if p.closed || p.protection.TrailingStopLoss == nil {
		return false
	}

	distance := *p.protection.TrailingStopLoss

	if p.direction == Long {
		candidate := bid.Sub(distance)
		if p.protection.StopLoss == nil || candidate.GreaterThan(*p.protection.StopLoss) {
			p.protection.StopLoss = &candidate
			p.updateDate = at
			return true
		}
		return false
	}

	candidate := ask.Add(distance)
	if p.protection.StopLoss == nil || candidate.LessThan(*p.protection.StopLoss) {
		p.protection.StopLoss = &candidate
		p.updateDate = at
		return true
	}
	return false
}

// PositionRecord is the read-only view of a position handed to external
// callers and serialized by the driver surface.
type PositionRecord struct {
	ID         uint              `json:"id"`
	Symbol     string            `json:"symbol"`
	Direction  PositionDirection `json:"direction"`
	Volume     decimal.Decimal   `json:"volume"`
	AvgPrice   decimal.Decimal   `json:"avg_price"`
	Protection Protection        `json:"protection"`
	Closed     bool              `json:"closed"`
	OpenDate   time.Time         `json:"open_date"`
	UpdateDate time.Time         `json:"update_date"`
}

func (p *Position) Record() *PositionRecord {
	return &PositionRecord{
		ID:         p.id,
		Symbol:     p.symbol,
		Direction:  p.direction,
		Volume:     p.volume,
		AvgPrice:   p.avgPrice,
		Protection: p.protection,
		Closed:     p.closed,
		OpenDate:   p.openDate,
		UpdateDate: p.updateDate,
	}
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick is a timestamped bid/ask quote. Ticks are immutable: they are created by
// the data loader and never mutated by the engine.
type Tick struct {
	Symbol    string          `json:"symbol"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewTick(symbol string, bid, ask decimal.Decimal, timestamp time.Time) *Tick {
	return &Tick{
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		Timestamp: timestamp,
	}
}

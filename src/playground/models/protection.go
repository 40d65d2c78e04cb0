package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Protection holds the stop-loss / take-profit / trailing-stop-loss directives
// attached to a position. TrailingStopLoss is a price distance: on each tick
// the stop-loss is ratcheted to stay within that distance of the market.
type Protection struct {
	StopLoss         *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit       *decimal.Decimal `json:"take_profit,omitempty"`
	TrailingStopLoss *decimal.Decimal `json:"trailing_stop_loss,omitempty"`
}

func (p Protection) Validate() error {
	if p.StopLoss != nil && !p.StopLoss.IsPositive() {
		return fmt.Errorf("stop loss must be greater than 0")
	}

	if p.TakeProfit != nil && !p.TakeProfit.IsPositive() {
		return fmt.Errorf("take profit must be greater than 0")
	}

	if p.TrailingStopLoss != nil && !p.TrailingStopLoss.IsPositive() {
		return fmt.Errorf("trailing stop loss distance must be greater than 0")
	}

	return nil
}

func (p Protection) IsZero() bool {
	return p.StopLoss == nil && p.TakeProfit == nil && p.TrailingStopLoss == nil
}

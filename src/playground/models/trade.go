package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable execution record. It is created exactly once per
// successful match and never mutated afterwards.
type Trade struct {
	ID               uint            `json:"id"`
	OrderID          uint            `json:"order_id"`
	PositionID       uint            `json:"position_id"`
	Symbol           string          `json:"symbol"`
	Volume           decimal.Decimal `json:"volume"`
	Direction        OrderDirection  `json:"direction"`
	Purpose          OrderPurpose    `json:"purpose"`
	ExecutionPrice   decimal.Decimal `json:"execution_price"`
	ExecutionDate    time.Time       `json:"execution_date"`
	GrossProfit      decimal.Decimal `json:"gross_profit"`
	GrossProfitAsset string          `json:"gross_profit_asset"`
	Commission       decimal.Decimal `json:"commission"`
	CommissionAsset  string          `json:"commission_asset"`
	Swap             decimal.Decimal `json:"swap"`
	SwapAsset        string          `json:"swap_asset"`
}

func (t *Trade) String() string {
	return fmt.Sprintf("%s %s %s @%s", t.Direction, t.Volume, t.Symbol, t.ExecutionPrice)
}

func NewTrade(id uint, orderID uint, positionID uint, symbol string, volume decimal.Decimal, direction OrderDirection, purpose OrderPurpose, executionPrice decimal.Decimal, executionDate time.Time) *Trade {
	return &Trade{
		ID:             id,
		OrderID:        orderID,
		PositionID:     positionID,
		Symbol:         symbol,
		Volume:         volume,
		Direction:      direction,
		Purpose:        purpose,
		ExecutionPrice: executionPrice,
		ExecutionDate:  executionDate,
	}
}

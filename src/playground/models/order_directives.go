package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderDirectives is the caller's description of an order. Either Symbol or
// PositionID must be set: a position id targets an existing position and makes
// the order close-purpose; a bare symbol opens new exposure.
type OrderDirectives struct {
	Symbol     string           `json:"symbol,omitempty"`
	PositionID *uint            `json:"position_id,omitempty"`
	Direction  OrderDirection   `json:"direction"`
	Volume     decimal.Decimal  `json:"volume"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty"`
	Protection *Protection      `json:"protection,omitempty"`
	Duration   OrderDuration    `json:"duration,omitempty"`
}

func (d OrderDirectives) Validate() error {
	if d.Symbol == "" && d.PositionID == nil {
		return fmt.Errorf("%w: either symbol or position id must be set", ErrInvalidDirectives)
	}

	if err := d.Direction.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDirectives, err)
	}

	if !d.Volume.IsPositive() {
		return fmt.Errorf("%w: volume must be greater than 0", ErrInvalidDirectives)
	}

	if d.LimitPrice != nil && !d.LimitPrice.IsPositive() {
		return fmt.Errorf("%w: limit price must be greater than 0", ErrInvalidDirectives)
	}

	if d.StopPrice != nil && !d.StopPrice.IsPositive() {
		return fmt.Errorf("%w: stop price must be greater than 0", ErrInvalidDirectives)
	}

	if d.Duration != "" {
		if err := d.Duration.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDirectives, err)
		}
	}

	if d.Protection != nil {
		if err := d.Protection.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDirectives, err)
		}
	}

	return nil
}

package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord is the read-only view of an order handed to external callers
// and serialized by the driver surface.
type OrderRecord struct {
	ID           uint             `json:"id"`
	Symbol       string           `json:"symbol"`
	Direction    OrderDirection   `json:"direction"`
	Purpose      OrderPurpose     `json:"purpose"`
	Volume       decimal.Decimal  `json:"volume"`
	LimitPrice   *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice    *decimal.Decimal `json:"stop_price,omitempty"`
	PositionID   *uint            `json:"position_id,omitempty"`
	Duration     OrderDuration    `json:"duration"`
	Status       OrderStatus      `json:"status"`
	RejectReason *string          `json:"reject_reason,omitempty"`
	CreateDate   time.Time        `json:"create_date"`
	UpdateDate   time.Time        `json:"update_date"`
	Trades       []*Trade         `json:"trades"`
}

func (o *Order) Record() *OrderRecord {
	return &OrderRecord{
		ID:           o.id,
		Symbol:       o.symbol,
		Direction:    o.direction,
		Purpose:      o.purpose,
		Volume:       o.volume,
		LimitPrice:   o.limitPrice,
		StopPrice:    o.stopPrice,
		PositionID:   o.positionID,
		Duration:     o.duration,
		Status:       o.status,
		RejectReason: o.rejectReason,
		CreateDate:   o.createDate,
		UpdateDate:   o.updateDate,
		Trades:       o.Trades(),
	}
}

func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Record())
}

func (p *Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Record())
}

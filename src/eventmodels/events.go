package eventmodels

import (
	"time"

	"github.com/google/uuid"

	"github.com/fxreplay/fxreplay/src/playground/models"
)

type TickEvent struct {
	Tick *models.Tick `json:"tick"`
}

// OrderEvent is published on every order life-cycle transition: acceptance
// ("order"), execution, cancellation or expiry ("order-cancel") and rejection.
type OrderEvent struct {
	AccountID uuid.UUID     `json:"account_id"`
	Order     *models.Order `json:"order"`
}

type TradeEvent struct {
	AccountID uuid.UUID     `json:"account_id"`
	Trade     *models.Trade `json:"trade"`
}

// PeriodUpdateEvent is published once at the end of every ElapseTime window.
type PeriodUpdateEvent struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	TicksProcessed int       `json:"ticks_processed"`
}

type ProtectionChangeRequest struct {
	RequestID   uuid.UUID         `json:"request_id"`
	AccountID   uuid.UUID         `json:"account_id"`
	PositionID  uint              `json:"position_id"`
	Protection  models.Protection `json:"protection"`
	RequestedAt time.Time         `json:"requested_at"`
}

type ProtectionChangeAck struct {
	RequestID uuid.UUID `json:"request_id"`
	Rejected  bool      `json:"rejected"`
	Reason    string    `json:"reason,omitempty"`
}

func NewProtectionChangeRequest(accountID uuid.UUID, positionID uint, protection models.Protection, at time.Time) ProtectionChangeRequest {
	return ProtectionChangeRequest{
		RequestID:   uuid.New(),
		AccountID:   accountID,
		PositionID:  positionID,
		Protection:  protection,
		RequestedAt: at,
	}
}

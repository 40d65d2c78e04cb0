package models

type OrderStatus string

const (
	OrderStatusRequested OrderStatus = "requested"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusExecuted  OrderStatus = "executed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusRejected  OrderStatus = "rejected"
)

func (status OrderStatus) IsTerminal() bool {
	return status == OrderStatusExecuted || status == OrderStatusCancelled || status == OrderStatusExpired || status == OrderStatusRejected
}

// IsTradingAllowed reports whether the order may still be matched against the market.
func (status OrderStatus) IsTradingAllowed() bool {
	return status == OrderStatusAccepted || status == OrderStatusPending
}

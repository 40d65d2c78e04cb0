package eventmodels

type EventName string

const (
	TickEventName                    EventName = "tick"
	OrderEventName                   EventName = "order"
	OrderExecuteEventName            EventName = "order-execute"
	OrderCancelEventName             EventName = "order-cancel"
	OrderRejectEventName             EventName = "order-reject"
	TradeEventName                   EventName = "trade"
	PeriodUpdateEventName            EventName = "period-update"
	ProtectionChangeRequestEventName EventName = "protection-change-request"
	ProtectionChangeAckEventName     EventName = "protection-change-ack"
)

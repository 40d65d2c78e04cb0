package models

import "fmt"

var (
	ErrSymbolNotFound    = fmt.Errorf("symbol not found")
	ErrNotEnoughMoney    = fmt.Errorf("not enough money")
	ErrInvalidDirectives = fmt.Errorf("invalid order directives")
	ErrPositionNotFound  = fmt.Errorf("position not found")
	ErrNoPriceAvailable  = fmt.Errorf("no price available")

	ErrOrderNotFound   = fmt.Errorf("order not found")
	ErrOrderNotPending = fmt.Errorf("order is not pending")
	ErrPositionClosed  = fmt.Errorf("position is closed")
	ErrAccountNotFound = fmt.Errorf("account not found")
)

package models

import "fmt"

type OrderPurpose string

const (
	OrderPurposeOpen  OrderPurpose = "open"
	OrderPurposeClose OrderPurpose = "close"
)

func (p OrderPurpose) Validate() error {
	switch p {
	case OrderPurposeOpen, OrderPurposeClose:
		return nil
	default:
		return fmt.Errorf("invalid order purpose: %s", p)
	}
}

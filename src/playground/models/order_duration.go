package models

import "fmt"

type OrderDuration string

const (
	GTC OrderDuration = "gtc"
	Day OrderDuration = "day"
)

func (d OrderDuration) Validate() error {
	switch d {
	case GTC, Day:
		return nil
	default:
		return fmt.Errorf("invalid order duration: %s", d)
	}
}

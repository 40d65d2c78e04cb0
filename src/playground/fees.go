package playground

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fxreplay/fxreplay/src/playground/models"
)

// FeeCustomizer computes the commission and swap charged for an execution.
// An empty asset means the charge is denominated in the account's primary
// asset. The default customizer charges nothing.
type FeeCustomizer interface {
	Commission(instrument models.Instrument, volume, price decimal.Decimal, date time.Time) (asset string, amount decimal.Decimal)
	Swap(instrument models.Instrument, volume, price decimal.Decimal, date time.Time) (asset string, amount decimal.Decimal)
}

type zeroFees struct{}

func (zeroFees) Commission(models.Instrument, decimal.Decimal, decimal.Decimal, time.Time) (string, decimal.Decimal) {
	return "", decimal.Zero
}

func (zeroFees) Swap(models.Instrument, decimal.Decimal, decimal.Decimal, time.Time) (string, decimal.Decimal) {
	return "", decimal.Zero
}

func ZeroFees() FeeCustomizer {
	return zeroFees{}
}

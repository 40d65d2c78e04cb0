package playground

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/playground/models"
)

// GetEquity sums the account's free+locked volume over all assets, converted
// to the primary asset at last-tick prices. Assets without a known exchange
// rate to the primary asset are silently excluded; that is a documented
// limitation, not an error.
func (p *Playground) GetEquity(accountID uuid.UUID) (decimal.Decimal, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	account, err := p.accounts.Get(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return p.equity(account), nil
}

func (p *Playground) equity(account *models.Account) decimal.Decimal {
	total := decimal.Zero
	primary := account.PrimaryAsset()

	for _, asset := range account.Assets() {
		entry := account.AssetBalance(asset)
		gross := entry.FreeVolume.Add(entry.LockedVolume)
		if gross.IsZero() {
			continue
		}

		converted, found := p.convertToPrimary(gross, asset, primary)
		if !found {
			log.Debugf("equity: no conversion rate from %s to %s", asset, primary)
			continue
		}

		total = total.Add(converted)
	}

	return total
}

// convertToPrimary converts an asset amount to the primary asset using the
// last tick of a registered instrument quoting the pair in either direction.
// A direct quote multiplies by the bid; an inverse quote divides by the ask,
// not multiplies by a precomputed reciprocal, so no precision is lost.
func (p *Playground) convertToPrimary(amount decimal.Decimal, asset, primary string) (decimal.Decimal, bool) {
	if asset == primary {
		return amount, true
	}

	for _, instrument := range p.tickStore.Instruments() {
		tick, found := p.lastTicks[instrument.Symbol]
		if !found {
			continue
		}

		if instrument.BaseAsset == asset && instrument.QuoteAsset == primary {
			return amount.Mul(tick.Bid), true
		}

		if instrument.BaseAsset == primary && instrument.QuoteAsset == asset {
			if tick.Ask.IsZero() {
				continue
			}

			return amount.Div(tick.Ask), true
		}
	}

	return decimal.Zero, false
}

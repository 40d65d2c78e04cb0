package models

import "fmt"

// Instrument describes a tradeable symbol as a base/quote asset pair,
// e.g. EURUSD trades EUR (base) against USD (quote).
type Instrument struct {
	Symbol     string `json:"symbol" yaml:"symbol"`
	BaseAsset  string `json:"base_asset" yaml:"base"`
	QuoteAsset string `json:"quote_asset" yaml:"quote"`
}

func (i Instrument) Validate() error {
	if i.Symbol == "" {
		return fmt.Errorf("instrument symbol not set")
	}

	if i.BaseAsset == "" || i.QuoteAsset == "" {
		return fmt.Errorf("instrument %s: base and quote assets must be set", i.Symbol)
	}

	if i.BaseAsset == i.QuoteAsset {
		return fmt.Errorf("instrument %s: base and quote assets must differ", i.Symbol)
	}

	return nil
}

func NewInstrument(symbol, baseAsset, quoteAsset string) Instrument {
	return Instrument{
		Symbol:     symbol,
		BaseAsset:  baseAsset,
		QuoteAsset: quoteAsset,
	}
}

package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fxreplay/fxreplay/src/playground"
	"github.com/fxreplay/fxreplay/src/playground/models"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleAt(at time.Time, equity string) EquitySample {
	return EquitySample{Time: at, Equity: d(equity)}
}

func TestMaxDrawdown(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	t.Run("monotonic curve has zero drawdown", func(t *testing.T) {
		samples := []EquitySample{
			sampleAt(ts, "100"),
			sampleAt(ts.Add(time.Minute), "110"),
			sampleAt(ts.Add(2*time.Minute), "120"),
		}
		assert.Equal(t, 0.0, maxDrawdown(samples))
	})

	t.Run("deepest trough relative to the prior peak", func(t *testing.T) {
		samples := []EquitySample{
			sampleAt(ts, "100"),
			sampleAt(ts.Add(time.Minute), "200"),
			sampleAt(ts.Add(2*time.Minute), "150"),
			sampleAt(ts.Add(3*time.Minute), "180"),
			sampleAt(ts.Add(4*time.Minute), "120"),
		}
		assert.InDelta(t, 0.4, maxDrawdown(samples), 1e-9)
	})
}

func TestPeriodReturns(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	samples := []EquitySample{
		sampleAt(ts, "100"),
		sampleAt(ts.Add(time.Minute), "110"),
		sampleAt(ts.Add(2*time.Minute), "99"),
	}

	returns := periodReturns(samples)
	if assert.Len(t, returns, 2) {
		assert.InDelta(t, 0.1, returns[0], 1e-9)
		assert.InDelta(t, -0.1, returns[1], 1e-9)
	}
}

func TestCollector(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	account := models.NewAccount("USD", map[string]decimal.Decimal{"USD": d("10000")})
	p, err := playground.NewPlayground(playground.NewClock(start), playground.NewAccountRegistry(account), nil, nil, nil,
		models.Instrument{Symbol: "EURUSD", BaseAsset: "EUR", QuoteAsset: "USD"})
	assert.NoError(t, err)

	collector, err := NewCollector(p, account.ID())
	assert.NoError(t, err)

	assert.NoError(t, p.RegisterSymbolTicks("EURUSD", []*models.Tick{
		{Symbol: "EURUSD", Bid: d("1.1000"), Ask: d("1.1002"), Timestamp: start.Add(1 * time.Second)},
		{Symbol: "EURUSD", Bid: d("1.1010"), Ask: d("1.1012"), Timestamp: start.Add(3 * time.Second)},
	}))

	_, err = p.ElapseTime(2)
	assert.NoError(t, err)

	_, err = p.PlaceOrder(account.ID(), models.OrderDirectives{
		Symbol:    "EURUSD",
		Direction: models.Buy,
		Volume:    decimal.NewFromInt(1000),
	})
	assert.NoError(t, err)

	_, err = p.ElapseTime(2)
	assert.NoError(t, err)

	positions, err := p.GetOpenPositions(account.ID())
	assert.NoError(t, err)
	assert.Len(t, positions, 1)

	_, err = p.PlaceOrder(account.ID(), models.OrderDirectives{
		PositionID: &positions[0].ID,
		Direction:  models.Sell,
		Volume:     decimal.NewFromInt(1000),
	})
	assert.NoError(t, err)

	_, err = p.ElapseTime(2)
	assert.NoError(t, err)

	t.Run("samples one equity point per period", func(t *testing.T) {
		assert.Len(t, collector.Samples(), 3)
	})

	t.Run("records both trades", func(t *testing.T) {
		assert.Len(t, collector.Trades(), 2)
	})

	t.Run("summary counts closed trades and profit", func(t *testing.T) {
		summary, err := collector.Summarize()
		assert.NoError(t, err)

		assert.Equal(t, 1, summary.TradeCount, "only close-purpose trades count")
		assert.Equal(t, 1, summary.Wins)
		assert.Equal(t, 0, summary.Losses)
		assert.Equal(t, 1.0, summary.WinRate)

		// bought 1000 at 1.1002, sold at 1.1010
		assert.True(t, summary.NetProfit.Equal(d("0.8")), "net profit %s", summary.NetProfit)
	})

	t.Run("render produces a table", func(t *testing.T) {
		summary, err := collector.Summarize()
		assert.NoError(t, err)

		var buf bytes.Buffer
		summary.Render(&buf)
		assert.Contains(t, buf.String(), "Net Profit")
		assert.Contains(t, buf.String(), "Max Drawdown")
	})
}

func TestCollector_SummarizeWithoutSamples(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	account := models.NewAccount("USD", nil)
	p, err := playground.NewPlayground(playground.NewClock(start), playground.NewAccountRegistry(account), nil, nil, nil,
		models.Instrument{Symbol: "EURUSD", BaseAsset: "EUR", QuoteAsset: "USD"})
	assert.NoError(t, err)

	collector, err := NewCollector(p, account.ID())
	assert.NoError(t, err)

	_, err = collector.Summarize()
	assert.Error(t, err)
}

package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fxreplay/fxreplay/src/eventmodels"
	"github.com/fxreplay/fxreplay/src/playground"
	"github.com/fxreplay/fxreplay/src/playground/models"
)

// EquitySample is one point of the equity curve, taken at the end of a
// replay window.
type EquitySample struct {
	Time   time.Time
	Equity decimal.Decimal
}

// Collector accumulates one account's equity curve and trade log while a
// replay runs. It samples equity on every period update, so the curve
// resolution follows the step size the replay was driven with.
type Collector struct {
	mtx       sync.Mutex
	p         *playground.Playground
	accountID uuid.UUID
	samples   []EquitySample
	trades    []*models.Trade
}

func NewCollector(p *playground.Playground, accountID uuid.UUID) (*Collector, error) {
	c := &Collector{
		p:         p,
		accountID: accountID,
	}

	if err := p.On("report-collector", eventmodels.PeriodUpdateEventName, c.onPeriodUpdate); err != nil {
		return nil, fmt.Errorf("subscribing to period updates: %w", err)
	}

	if err := p.On("report-collector", eventmodels.TradeEventName, c.onTrade); err != nil {
		return nil, fmt.Errorf("subscribing to trades: %w", err)
	}

	return c, nil
}

func (c *Collector) onPeriodUpdate(event interface{}) {
	update, ok := event.(eventmodels.PeriodUpdateEvent)
	if !ok {
		return
	}

	equity, err := c.p.GetEquity(c.accountID)
	if err != nil {
		return
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.samples = append(c.samples, EquitySample{Time: update.End, Equity: equity})
}

func (c *Collector) onTrade(event interface{}) {
	tradeEvent, ok := event.(eventmodels.TradeEvent)
	if !ok || tradeEvent.AccountID != c.accountID {
		return
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.trades = append(c.trades, tradeEvent.Trade)
}

func (c *Collector) Samples() []EquitySample {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	out := make([]EquitySample, len(c.samples))
	copy(out, c.samples)
	return out
}

func (c *Collector) Trades() []*models.Trade {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	out := make([]*models.Trade, len(c.trades))
	copy(out, c.trades)
	return out
}

// Summary is the aggregate view of one replay run for one account.
type Summary struct {
	StartEquity decimal.Decimal
	EndEquity   decimal.Decimal
	NetProfit   decimal.Decimal
	TradeCount  int
	Wins        int
	Losses      int
	WinRate     float64
	MeanReturn  float64
	StdevReturn float64
	MaxDrawdown float64
}

func (c *Collector) Summarize() (*Summary, error) {
	samples := c.Samples()
	trades := c.Trades()

	if len(samples) == 0 {
		return nil, fmt.Errorf("no equity samples collected")
	}

	summary := &Summary{
		StartEquity: samples[0].Equity,
		EndEquity:   samples[len(samples)-1].Equity,
	}
	summary.NetProfit = summary.EndEquity.Sub(summary.StartEquity)

	for _, trade := range trades {
		if trade.Purpose != models.OrderPurposeClose {
			continue
		}

		summary.TradeCount++
		if trade.GrossProfit.IsPositive() {
			summary.Wins++
		} else if trade.GrossProfit.IsNegative() {
			summary.Losses++
		}
	}

	if summary.TradeCount > 0 {
		summary.WinRate = float64(summary.Wins) / float64(summary.TradeCount)
	}

	returns := periodReturns(samples)
	if len(returns) > 0 {
		mean, err := stats.Mean(returns)
		if err != nil {
			return nil, fmt.Errorf("computing mean return: %w", err)
		}
		summary.MeanReturn = mean

		stdev, err := stats.StandardDeviation(returns)
		if err != nil {
			return nil, fmt.Errorf("computing return stdev: %w", err)
		}
		summary.StdevReturn = stdev
	}

	summary.MaxDrawdown = maxDrawdown(samples)

	return summary, nil
}

func periodReturns(samples []EquitySample) []float64 {
	var returns []float64
	for i := 1; i < len(samples); i++ {
		prev, _ := samples[i-1].Equity.Float64()
		cur, _ := samples[i].Equity.Float64()
		if prev == 0 {
			continue
		}

		returns = append(returns, (cur-prev)/prev)
	}

	return returns
}

// maxDrawdown is the largest peak-to-trough equity decline, as a fraction
// of the peak.
func maxDrawdown(samples []EquitySample) float64 {
	var peak, worst float64
	for _, sample := range samples {
		equity, _ := sample.Equity.Float64()
		if equity > peak {
			peak = equity
		}

		if peak > 0 {
			drawdown := (peak - equity) / peak
			if drawdown > worst {
				worst = drawdown
			}
		}
	}

	return worst
}

// Render writes the summary as a table.
func (s *Summary) Render(w io.Writer) {
	printer := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)

	table.Append([]string{"Start Equity", printer.Sprintf("%.2f", mustFloat(s.StartEquity))})
	table.Append([]string{"End Equity", printer.Sprintf("%.2f", mustFloat(s.EndEquity))})
	table.Append([]string{"Net Profit", printer.Sprintf("%.2f", mustFloat(s.NetProfit))})
	table.Append([]string{"Closed Trades", printer.Sprintf("%d", s.TradeCount)})
	table.Append([]string{"Wins", printer.Sprintf("%d", s.Wins)})
	table.Append([]string{"Losses", printer.Sprintf("%d", s.Losses)})
	table.Append([]string{"Win Rate", printer.Sprintf("%.1f%%", s.WinRate*100)})
	table.Append([]string{"Mean Period Return", printer.Sprintf("%.4f%%", s.MeanReturn*100)})
	table.Append([]string{"Return Stdev", printer.Sprintf("%.4f%%", s.StdevReturn*100)})
	table.Append([]string{"Max Drawdown", printer.Sprintf("%.2f%%", s.MaxDrawdown*100)})

	table.Render()
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fxreplay/fxreplay/src/logger"
	"github.com/fxreplay/fxreplay/src/playground"
	"github.com/fxreplay/fxreplay/src/playground/models"
	"github.com/fxreplay/fxreplay/src/playground/report"
	"github.com/fxreplay/fxreplay/src/utils"
)

// ReplayConfig is the YAML run description: which tick files to load, how
// the account starts out, which orders to seed, and how big each clock
// step is.
type ReplayConfig struct {
	StartTime   time.Time          `yaml:"start_time"`
	StepSeconds int                `yaml:"step_seconds"`
	Instruments []InstrumentConfig `yaml:"instruments"`
	Account     AccountConfig      `yaml:"account"`
	Orders      []OrderConfig      `yaml:"orders"`
}

type InstrumentConfig struct {
	Symbol     string `yaml:"symbol"`
	BaseAsset  string `yaml:"base_asset"`
	QuoteAsset string `yaml:"quote_asset"`
	CsvPath    string `yaml:"csv"`
}

type AccountConfig struct {
	PrimaryAsset string            `yaml:"primary_asset"`
	Deposits     map[string]string `yaml:"deposits"`
}

type OrderConfig struct {
	Symbol     string `yaml:"symbol"`
	Direction  string `yaml:"direction"`
	Volume     string `yaml:"volume"`
	LimitPrice string `yaml:"limit_price"`
	StopPrice  string `yaml:"stop_price"`
	StopLoss   string `yaml:"stop_loss"`
	TakeProfit string `yaml:"take_profit"`
	Duration   string `yaml:"duration"`
}

func loadConfig(path string) (*ReplayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg ReplayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.StepSeconds <= 0 {
		cfg.StepSeconds = 60
	}

	return &cfg, nil
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", raw, err)
	}

	return &d, nil
}

func (cfg OrderConfig) toDirectives() (models.OrderDirectives, error) {
	var directives models.OrderDirectives
	directives.Symbol = cfg.Symbol
	directives.Direction = models.OrderDirection(cfg.Direction)

	volume, err := decimal.NewFromString(cfg.Volume)
	if err != nil {
		return directives, fmt.Errorf("parsing volume %q: %w", cfg.Volume, err)
	}
	directives.Volume = volume

	if directives.LimitPrice, err = parsePrice(cfg.LimitPrice); err != nil {
		return directives, err
	}

	if directives.StopPrice, err = parsePrice(cfg.StopPrice); err != nil {
		return directives, err
	}

	var protection models.Protection
	if protection.StopLoss, err = parsePrice(cfg.StopLoss); err != nil {
		return directives, err
	}

	if protection.TakeProfit, err = parsePrice(cfg.TakeProfit); err != nil {
		return directives, err
	}

	if !protection.IsZero() {
		directives.Protection = &protection
	}

	if cfg.Duration != "" {
		directives.Duration = models.OrderDuration(cfg.Duration)
	}

	return directives, nil
}

func runReplay(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	deposits := make(map[string]decimal.Decimal, len(cfg.Account.Deposits))
	for asset, raw := range cfg.Account.Deposits {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parsing deposit %s=%q: %w", asset, raw, err)
		}

		deposits[asset] = amount
	}

	account := models.NewAccount(cfg.Account.PrimaryAsset, deposits)

	instruments := make([]models.Instrument, 0, len(cfg.Instruments))
	for _, ic := range cfg.Instruments {
		instruments = append(instruments, models.Instrument{
			Symbol:     ic.Symbol,
			BaseAsset:  ic.BaseAsset,
			QuoteAsset: ic.QuoteAsset,
		})
	}

	p, err := playground.NewPlayground(playground.NewClock(cfg.StartTime), playground.NewAccountRegistry(account), nil, nil, nil, instruments...)
	if err != nil {
		return fmt.Errorf("creating playground: %w", err)
	}

	for _, ic := range cfg.Instruments {
		ticks, err := utils.LoadTicksFromFile(ic.CsvPath, ic.Symbol)
		if err != nil {
			return err
		}

		if err := p.RegisterSymbolTicks(ic.Symbol, ticks); err != nil {
			return fmt.Errorf("registering %s ticks: %w", ic.Symbol, err)
		}

		log.Infof("loaded %d ticks for %s from %s", len(ticks), ic.Symbol, ic.CsvPath)
	}

	collector, err := report.NewCollector(p, account.ID())
	if err != nil {
		return fmt.Errorf("creating report collector: %w", err)
	}

	for _, oc := range cfg.Orders {
		directives, err := oc.toDirectives()
		if err != nil {
			return err
		}

		order, err := p.PlaceOrder(account.ID(), directives)
		if err != nil {
			return fmt.Errorf("placing %s %s order: %w", directives.Direction, directives.Symbol, err)
		}

		log.Infof("placed order %d: %s %s %s, status %s", order.ID(), order.Direction(), order.Volume(), order.Symbol(), order.Status())
	}

	for p.RemainingTicks() > 0 {
		if _, err := p.ElapseTime(cfg.StepSeconds); err != nil {
			return fmt.Errorf("advancing clock: %w", err)
		}
	}

	summary, err := collector.Summarize()
	if err != nil {
		return fmt.Errorf("summarizing run: %w", err)
	}

	summary.Render(os.Stdout)
	return nil
}

func main() {
	logger.Init()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded ticks through a playground and print a run report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(configPath)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "replay.yaml", "path to the replay config file")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/fxreplay/fxreplay/src/playground/models"
)

// CsvTickDTO is one row of a tick CSV export: RFC3339 timestamp plus bid/ask.
type CsvTickDTO struct {
	Timestamp string `csv:"timestamp"`
	Bid       string `csv:"bid"`
	Ask       string `csv:"ask"`
}

func (dto CsvTickDTO) ToTick(symbol string) (*models.Tick, error) {
	timestamp, err := time.Parse(time.RFC3339, dto.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", dto.Timestamp, err)
	}

	bid, err := decimal.NewFromString(dto.Bid)
	if err != nil {
		return nil, fmt.Errorf("parsing bid %q: %w", dto.Bid, err)
	}

	ask, err := decimal.NewFromString(dto.Ask)
	if err != nil {
		return nil, fmt.Errorf("parsing ask %q: %w", dto.Ask, err)
	}

	return models.NewTick(symbol, bid, ask, timestamp), nil
}

// ReadTicks decodes tick rows for one symbol from CSV data.
func ReadTicks(r io.Reader, symbol string) ([]*models.Tick, error) {
	var rows []*CsvTickDTO
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("unmarshalling tick csv: %w", err)
	}

	ticks := make([]*models.Tick, 0, len(rows))
	for _, row := range rows {
		tick, err := row.ToTick(symbol)
		if err != nil {
			return nil, err
		}

		ticks = append(ticks, tick)
	}

	return ticks, nil
}

func LoadTicksFromFile(path, symbol string) ([]*models.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ReadTicks(f, symbol)
}

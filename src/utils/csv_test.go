package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReadTicks(t *testing.T) {
	t.Run("parses rows into ticks", func(t *testing.T) {
		data := strings.Join([]string{
			"timestamp,bid,ask",
			"2024-01-02T09:00:01Z,1.1000,1.1002",
			"2024-01-02T09:00:02Z,1.1010,1.1012",
		}, "\n")

		ticks, err := ReadTicks(strings.NewReader(data), "EURUSD")
		assert.NoError(t, err)
		if assert.Len(t, ticks, 2) {
			assert.Equal(t, "EURUSD", ticks[0].Symbol)
			assert.True(t, ticks[0].Bid.Equal(decimal.RequireFromString("1.1000")))
			assert.True(t, ticks[0].Ask.Equal(decimal.RequireFromString("1.1002")))
			assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 1, 0, time.UTC), ticks[0].Timestamp)
			assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 2, 0, time.UTC), ticks[1].Timestamp)
		}
	})

	t.Run("bad timestamp fails", func(t *testing.T) {
		data := "timestamp,bid,ask\nnot-a-time,1.1,1.2"
		_, err := ReadTicks(strings.NewReader(data), "EURUSD")
		assert.Error(t, err)
	})

	t.Run("bad price fails", func(t *testing.T) {
		data := "timestamp,bid,ask\n2024-01-02T09:00:01Z,abc,1.2"
		_, err := ReadTicks(strings.NewReader(data), "EURUSD")
		assert.Error(t, err)
	})
}

func TestEndOfDay(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), EndOfDay(ts))

	midnight := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), EndOfDay(midnight))
}

package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPosition_IncreaseAndReduce(t *testing.T) {
	ts := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	t.Run("increase aggregates at volume weighted average price", func(t *testing.T) {
		position := NewPosition(1, "EURUSD", Long, ts)

		assert.NoError(t, position.Increase(decimal.NewFromInt(1000), decimal.RequireFromString("1.10"), ts))
		assert.True(t, position.AvgPrice().Equal(decimal.RequireFromString("1.10")), "avg price %s", position.AvgPrice())

		assert.NoError(t, position.Increase(decimal.NewFromInt(1000), decimal.RequireFromString("1.20"), ts))
		assert.True(t, position.Volume().Equal(decimal.NewFromInt(2000)))
		assert.True(t, position.AvgPrice().Equal(decimal.RequireFromString("1.15")), "avg price %s", position.AvgPrice())
	})

	t.Run("partial reduce keeps the average price", func(t *testing.T) {
		position := NewPosition(1, "EURUSD", Long, ts)
		assert.NoError(t, position.Increase(decimal.NewFromInt(2000), decimal.RequireFromString("1.15"), ts))

		assert.NoError(t, position.Reduce(decimal.NewFromInt(500), decimal.RequireFromString("1.20"), ts))
		assert.True(t, position.Volume().Equal(decimal.NewFromInt(1500)))
		assert.True(t, position.AvgPrice().Equal(decimal.RequireFromString("1.15")))
		assert.False(t, position.IsClosed())
	})

	t.Run("exact reduce closes the position", func(t *testing.T) {
		position := NewPosition(1, "EURUSD", Long, ts)
		assert.NoError(t, position.Increase(decimal.NewFromInt(1000), decimal.RequireFromString("1.10"), ts))

		assert.NoError(t, position.Reduce(decimal.NewFromInt(1000), decimal.RequireFromString("1.12"), ts))
		assert.True(t, position.IsClosed())
		assert.True(t, position.Volume().IsZero())

		assert.ErrorIs(t, position.Increase(decimal.NewFromInt(1), decimal.NewFromInt(1), ts), ErrPositionClosed)
		assert.ErrorIs(t, position.Reduce(decimal.NewFromInt(1), decimal.NewFromInt(1), ts), ErrPositionClosed)
	})

	t.Run("over reduce reverses the position", func(t *testing.T) {
		position := NewPosition(1, "EURUSD", Long, ts)
		assert.NoError(t, position.Increase(decimal.NewFromInt(1000), decimal.RequireFromString("1.10"), ts))

		assert.NoError(t, position.Reduce(decimal.NewFromInt(1500), decimal.RequireFromString("1.12"), ts))
		assert.Equal(t, Short, position.Direction())
		assert.True(t, position.Volume().Equal(decimal.NewFromInt(500)))
		assert.True(t, position.AvgPrice().Equal(decimal.RequireFromString("1.12")), "reversed avg price carries the trade price")
		assert.False(t, position.IsClosed())
	})

	t.Run("non positive volumes are rejected", func(t *testing.T) {
		position := NewPosition(1, "EURUSD", Long, ts)
		assert.Error(t, position.Increase(decimal.Zero, decimal.NewFromInt(1), ts))
		assert.Error(t, position.Reduce(decimal.NewFromInt(-1), decimal.NewFromInt(1), ts))
	})
}

func TestPosition_ProtectionTriggers(t *testing.T) {
	ts := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	newLong := func(protection Protection) *Position {
		position := NewPosition(1, "EURUSD", Long, ts)
		assert.NoError(t, position.Increase(decimal.NewFromInt(1000), decimal.RequireFromString("1.10"), ts))
		assert.NoError(t, position.SetProtection(protection, ts))
		return position
	}

	newShort := func(protection Protection) *Position {
		position := NewPosition(1, "EURUSD", Short, ts)
		assert.NoError(t, position.Increase(decimal.NewFromInt(1000), decimal.RequireFromString("1.10"), ts))
		assert.NoError(t, position.SetProtection(protection, ts))
		return position
	}

	t.Run("long stop loss triggers on bid", func(t *testing.T) {
		position := newLong(Protection{StopLoss: price("1.0950")})

		assert.False(t, position.StopLossTriggered(decimal.RequireFromString("1.0951"), decimal.RequireFromString("1.0953")))
		assert.True(t, position.StopLossTriggered(decimal.RequireFromString("1.0950"), decimal.RequireFromString("1.0952")))
		assert.True(t, position.StopLossTriggered(decimal.RequireFromString("1.0940"), decimal.RequireFromString("1.0942")))
	})

	t.Run("short stop loss triggers on ask", func(t *testing.T) {
		position := newShort(Protection{StopLoss: price("1.1050")})

		assert.False(t, position.StopLossTriggered(decimal.RequireFromString("1.1047"), decimal.RequireFromString("1.1049")))
		assert.True(t, position.StopLossTriggered(decimal.RequireFromString("1.1048"), decimal.RequireFromString("1.1050")))
	})

	t.Run("long take profit triggers on bid", func(t *testing.T) {
		position := newLong(Protection{TakeProfit: price("1.1100")})

		assert.False(t, position.TakeProfitTriggered(decimal.RequireFromString("1.1099"), decimal.RequireFromString("1.1101")))
		assert.True(t, position.TakeProfitTriggered(decimal.RequireFromString("1.1100"), decimal.RequireFromString("1.1102")))
	})

	t.Run("short take profit triggers on ask", func(t *testing.T) {
		position := newShort(Protection{TakeProfit: price("1.0900")})

		assert.False(t, position.TakeProfitTriggered(decimal.RequireFromString("1.0899"), decimal.RequireFromString("1.0901")))
		assert.True(t, position.TakeProfitTriggered(decimal.RequireFromString("1.0898"), decimal.RequireFromString("1.0900")))
	})

	t.Run("no protection never triggers", func(t *testing.T) {
		position := newLong(Protection{})
		assert.False(t, position.StopLossTriggered(decimal.Zero, decimal.Zero))
		assert.False(t, position.TakeProfitTriggered(decimal.RequireFromString("99"), decimal.RequireFromString("99")))
	})
}

func TestPosition_RatchetTrailingStop(t *testing.T) {
	ts := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	distance := decimal.RequireFromString("0.0010")

	t.Run("long trailing stop follows the bid up", func(t *testing.T) {
		position := NewPosition(1, "EURUSD", Long, ts)
		assert.NoError(t, position.Increase(decimal.NewFromInt(1000), decimal.RequireFromString("1.10"), ts))
		assert.NoError(t, position.SetProtection(Protection{TrailingStopLoss: &distance}, ts))

		moved := position.RatchetTrailingStop(decimal.RequireFromString("1.1000"), decimal.RequireFromString("1.1002"), ts)
		assert.True(t, moved)
		if assert.NotNil(t, position.Protection().StopLoss) {
			assert.True(t, position.Protection().StopLoss.Equal(decimal.RequireFromString("1.0990")))
		}

		// market moves up, stop follows
		moved = position.RatchetTrailingStop(decimal.RequireFromString("1.1020"), decimal.RequireFromString("1.1022"), ts)
		assert.True(t, moved)
		assert.True(t, position.Protection().StopLoss.Equal(decimal.RequireFromString("1.1010")))

		// market falls back, stop never loosens
		moved = position.RatchetTrailingStop(decimal.RequireFromString("1.1005"), decimal.RequireFromString("1.1007"), ts)
		assert.False(t, moved)
		assert.True(t, position.Protection().StopLoss.Equal(decimal.RequireFromString("1.1010")))
	})

	t.Run("short trailing stop follows the ask down", func(t *testing.T) {
		position := NewPosition(1, "EURUSD", Short, ts)
		assert.NoError(t, position.Increase(decimal.NewFromInt(1000), decimal.RequireFromString("1.10"), ts))
		assert.NoError(t, position.SetProtection(Protection{TrailingStopLoss: &distance}, ts))

		assert.True(t, position.RatchetTrailingStop(decimal.RequireFromString("1.0998"), decimal.RequireFromString("1.1000"), ts))
		assert.True(t, position.Protection().StopLoss.Equal(decimal.RequireFromString("1.1010")))

		assert.True(t, position.RatchetTrailingStop(decimal.RequireFromString("1.0978"), decimal.RequireFromString("1.0980"), ts))
		assert.True(t, position.Protection().StopLoss.Equal(decimal.RequireFromString("1.0990")))

		assert.False(t, position.RatchetTrailingStop(decimal.RequireFromString("1.0988"), decimal.RequireFromString("1.0990"), ts))
		assert.True(t, position.Protection().StopLoss.Equal(decimal.RequireFromString("1.0990")))
	})
}

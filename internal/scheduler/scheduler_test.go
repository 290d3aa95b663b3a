package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradingDay(t *testing.T) {
	saoPaulo := time.FixedZone("-03", -3*60*60)

	t.Run("late evening keeps the local date", func(t *testing.T) {
		// 21:05 local on a Friday is already past midnight UTC.
		now := time.Date(2026, 8, 28, 21, 5, 0, 0, saoPaulo)
		require.Equal(t, time.Saturday, now.UTC().Weekday())

		day, ok := tradingDay(now)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), day)
	})

	t.Run("local weekend is skipped", func(t *testing.T) {
		now := time.Date(2026, 8, 29, 10, 0, 0, 0, saoPaulo)
		day, ok := tradingDay(now)
		assert.False(t, ok)
		assert.Equal(t, time.Saturday, day.Weekday())

		now = time.Date(2026, 8, 30, 10, 0, 0, 0, saoPaulo)
		_, ok = tradingDay(now)
		assert.False(t, ok)
	})

	t.Run("weekday midday", func(t *testing.T) {
		now := time.Date(2026, 8, 26, 12, 0, 0, 0, saoPaulo)
		day, ok := tradingDay(now)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), day)
	})
}

package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadobr/b3-market-data/internal/models"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func record(date time.Time, symbol string, price float64) *models.MarketDataRecord {
	return &models.MarketDataRecord{
		Date:   date,
		Symbol: symbol,
		Price:  decimal.NewFromFloat(price),
	}
}

func TestDedupe(t *testing.T) {
	t.Run("last occurrence wins", func(t *testing.T) {
		input := []*models.MarketDataRecord{
			record(day, "A", 10),
			record(day, "A", 20),
		}

		out, removed := Dedupe(input)
		require.Len(t, out, 1)
		assert.Equal(t, 1, removed)
		assert.True(t, decimal.NewFromFloat(20).Equal(out[0].Price))
	})

	t.Run("distinct keys pass through in order", func(t *testing.T) {
		input := []*models.MarketDataRecord{
			record(day, "B", 1),
			record(day, "A", 2),
			record(day.AddDate(0, 0, 1), "B", 3),
		}

		out, removed := Dedupe(input)
		require.Len(t, out, 3)
		assert.Equal(t, 0, removed)
		assert.Equal(t, "B", out[0].Symbol)
		assert.Equal(t, "A", out[1].Symbol)
	})

	t.Run("idempotent", func(t *testing.T) {
		input := []*models.MarketDataRecord{
			record(day, "A", 10),
			record(day, "B", 5),
			record(day, "A", 20),
			record(day, "A", 30),
		}

		once, removed1 := Dedupe(input)
		twice, removed2 := Dedupe(once)

		assert.Equal(t, 2, removed1)
		assert.Equal(t, 0, removed2)
		assert.Equal(t, once, twice)
		assert.LessOrEqual(t, len(once), len(input))
	})

	t.Run("empty input", func(t *testing.T) {
		out, removed := Dedupe(nil)
		assert.Empty(t, out)
		assert.Equal(t, 0, removed)
	})
}

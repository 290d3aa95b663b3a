package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadobr/b3-market-data/internal/models"
)

func makeRecord(date time.Time, symbol string, price float64) *models.MarketDataRecord {
	return &models.MarketDataRecord{
		Date:      date,
		Symbol:    symbol,
		TitleType: "VISTA",
		Price:     decimal.NewFromFloat(price),
		Variation: decimal.NewFromFloat(0.5),
		NumTrades: 1000,
		Quantity:  500000,
		Amount:    decimal.NewFromFloat(price * 500000),
	}
}

func TestMarketDataRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("UpsertMarketData inserts new records", func(t *testing.T) {
		testDB.TruncateAll(t)

		records := []*models.MarketDataRecord{
			makeRecord(day, "PETR4", 38.50),
			makeRecord(day, "VALE3", 61.20),
		}

		affected, err := testDB.UpsertMarketData(records)
		require.NoError(t, err)
		assert.Equal(t, int64(2), affected)
	})

	t.Run("UpsertMarketData is idempotent", func(t *testing.T) {
		testDB.TruncateAll(t)

		records := []*models.MarketDataRecord{
			makeRecord(day, "PETR4", 38.50),
			makeRecord(day, "VALE3", 61.20),
		}

		_, err := testDB.UpsertMarketData(records)
		require.NoError(t, err)
		_, err = testDB.UpsertMarketData(records)
		require.NoError(t, err)

		// No duplicate (date, symbol) rows after the second application.
		var count int
		err = testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM market_data`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		latest, err := testDB.GetLatestMarketData("PETR4")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(38.50).Equal(latest.Price))
	})

	t.Run("UpsertMarketData overwrites whole records on conflict", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.UpsertMarketData([]*models.MarketDataRecord{makeRecord(day, "PETR4", 38.50)})
		require.NoError(t, err)

		updated := makeRecord(day, "PETR4", 40.00)
		updated.NumTrades = 2000
		_, err = testDB.UpsertMarketData([]*models.MarketDataRecord{updated})
		require.NoError(t, err)

		latest, err := testDB.GetLatestMarketData("PETR4")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromFloat(40.00).Equal(latest.Price))
		assert.Equal(t, int64(2000), latest.NumTrades)
	})

	t.Run("GetMarketDataBySymbol returns full history oldest first", func(t *testing.T) {
		testDB.TruncateAll(t)

		var records []*models.MarketDataRecord
		for i := 0; i < 5; i++ {
			records = append(records, makeRecord(day.AddDate(0, 0, i), "ITUB4", 30.0+float64(i)))
		}
		_, err := testDB.UpsertMarketData(records)
		require.NoError(t, err)

		history, err := testDB.GetMarketDataBySymbol("ITUB4")
		require.NoError(t, err)
		require.Len(t, history, 5)
		assert.Equal(t, 15, history[0].Date.Day())
		assert.Equal(t, 19, history[4].Date.Day())
	})

	t.Run("GetMarketDataByDate returns the trading day", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.UpsertMarketData([]*models.MarketDataRecord{
			makeRecord(day, "PETR4", 38.50),
			makeRecord(day, "VALE3", 61.20),
			makeRecord(day.AddDate(0, 0, 1), "PETR4", 39.00),
		})
		require.NoError(t, err)

		dayRecords, err := testDB.GetMarketDataByDate(day)
		require.NoError(t, err)
		assert.Len(t, dayRecords, 2)
	})

	t.Run("GetSymbols lists distinct symbols", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.UpsertMarketData([]*models.MarketDataRecord{
			makeRecord(day, "PETR4", 38.50),
			makeRecord(day.AddDate(0, 0, 1), "PETR4", 39.00),
			makeRecord(day, "VALE3", 61.20),
		})
		require.NoError(t, err)

		symbols, err := testDB.GetSymbols()
		require.NoError(t, err)
		assert.Equal(t, []string{"PETR4", "VALE3"}, symbols)
	})

	t.Run("DeleteMarketData removes single record", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.UpsertMarketData([]*models.MarketDataRecord{makeRecord(day, "PETR4", 38.50)})
		require.NoError(t, err)

		latest, err := testDB.GetLatestMarketData("PETR4")
		require.NoError(t, err)

		err = testDB.DeleteMarketData(latest.ID)
		require.NoError(t, err)

		_, err = testDB.GetLatestMarketData("PETR4")
		require.Error(t, err)
	})

	t.Run("DeleteMarketData errors on missing id", func(t *testing.T) {
		testDB.TruncateAll(t)

		err := testDB.DeleteMarketData(99999)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("DeleteMarketDataByDate removes the full day", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.UpsertMarketData([]*models.MarketDataRecord{
			makeRecord(day, "PETR4", 38.50),
			makeRecord(day, "VALE3", 61.20),
			makeRecord(day.AddDate(0, 0, 1), "PETR4", 39.00),
		})
		require.NoError(t, err)

		affected, err := testDB.DeleteMarketDataByDate(day)
		require.NoError(t, err)
		assert.Equal(t, int64(2), affected)

		remaining, err := testDB.GetMarketDataBySymbol("PETR4")
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}

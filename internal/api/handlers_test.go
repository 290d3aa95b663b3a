package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadobr/b3-market-data/internal/indicators"
	"github.com/mercadobr/b3-market-data/internal/ingest"
	"github.com/mercadobr/b3-market-data/internal/models"
)

// stubStore satisfies both the ingest and indicator store interfaces.
type stubStore struct {
	history []*models.MarketDataRecord
}

func (s *stubStore) UpsertMarketData(records []*models.MarketDataRecord) (int64, error) {
	return int64(len(records)), nil
}

func (s *stubStore) GetMarketDataByID(id int) (*models.MarketDataRecord, error) {
	return nil, nil
}

func (s *stubStore) GetMarketDataBySymbol(symbol string) ([]*models.MarketDataRecord, error) {
	return s.history, nil
}

func (s *stubStore) GetMarketDataByDate(date time.Time) ([]*models.MarketDataRecord, error) {
	return nil, nil
}

func (s *stubStore) DeleteMarketData(id int) error { return nil }

func (s *stubStore) DeleteMarketDataByDate(date time.Time) (int64, error) { return 0, nil }

type zeroJitter struct{}

func (zeroJitter) Float64() float64 { return 0 }

func testRouter(store *stubStore) http.Handler {
	service := ingest.NewService(store, nil, nil, nil)
	engine := indicators.NewEngine(store, zeroJitter{})
	return SetupRoutes(NewHandler(nil, service, engine, nil, "https://example.com/bulletin"))
}

func TestAddMarketDataValidation(t *testing.T) {
	router := testRouter(&stubStore{})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/v1/market-data", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid record is accepted", func(t *testing.T) {
		w := post(`{"date":"2024-03-15","symbol":"petr4","price":38.5}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("over-length symbol is rejected before the store", func(t *testing.T) {
		w := post(`{"date":"2024-03-15","symbol":"PETR4EXTRALONG","price":38.5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "symbol exceeds")
	})

	t.Run("blank symbol is rejected", func(t *testing.T) {
		w := post(`{"date":"2024-03-15","symbol":"   ","price":38.5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid date is rejected", func(t *testing.T) {
		w := post(`{"date":"15/03/2024","symbol":"PETR4","price":38.5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetIndicatorsForecastFlag(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &stubStore{}
	for i := 0; i < 10; i++ {
		store.history = append(store.history, &models.MarketDataRecord{
			Date:   day.AddDate(0, 0, i),
			Symbol: "PETR4",
			Price:  decimal.NewFromFloat(30 + float64(i)),
		})
	}
	router := testRouter(store)

	get := func(target string) *models.IndicatorBundle {
		req := httptest.NewRequest("GET", target, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var bundle models.IndicatorBundle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundle))
		return &bundle
	}

	t.Run("forecast on by default", func(t *testing.T) {
		bundle := get("/api/v1/indicators/PETR4?window=5")
		assert.Len(t, bundle.Forecast, indicators.ForecastHorizonDays)
	})

	t.Run("forecast=false omits the projection", func(t *testing.T) {
		bundle := get("/api/v1/indicators/PETR4?window=5&forecast=false")
		assert.Empty(t, bundle.Forecast)
		assert.Len(t, bundle.Series, 5)
	})
}

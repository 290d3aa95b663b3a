package indicators

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mercadobr/b3-market-data/internal/models"
)

// Store is the read side of the persistent store the engine depends on.
type Store interface {
	GetMarketDataBySymbol(symbol string) ([]*models.MarketDataRecord, error)
	GetMarketDataByDate(date time.Time) ([]*models.MarketDataRecord, error)
}

// Engine reads historical series and serves derived indicators. It holds
// no state besides its dependencies; every read recomputes from the store.
type Engine struct {
	store  Store
	jitter JitterSource
}

// NewEngine creates an Engine. A nil jitter source gets a time-seeded one;
// tests inject a deterministic source instead.
func NewEngine(store Store, jitter JitterSource) *Engine {
	if jitter == nil {
		jitter = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{store: store, jitter: jitter}
}

// GetIndicators computes the indicator bundle for a symbol. Support and
// resistance come from the full history; everything else from the window.
func (e *Engine) GetIndicators(symbol string, cfg Config) (*models.IndicatorBundle, error) {
	history, err := e.store.GetMarketDataBySymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", symbol, err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("no market data for %s", symbol)
	}

	window := Window(history, cfg.Window)

	bundle := &models.IndicatorBundle{
		Symbol:            symbol,
		Window:            cfg.Window,
		Series:            BuildSeries(window, cfg),
		SupportResistance: SupportResistance(history),
		Sentiment:         Sentiment(window),
	}
	if cfg.WithForecast {
		bundle.Forecast = Forecast(window, ForecastHorizonDays, e.jitter)
	}
	return bundle, nil
}

// DayConcentration returns the top-3 amount share for a trading day.
func (e *Engine) DayConcentration(date time.Time) (float64, error) {
	day, err := e.store.GetMarketDataByDate(date)
	if err != nil {
		return 0, fmt.Errorf("failed to load trading day %s: %w", date.Format("2006-01-02"), err)
	}
	if len(day) == 0 {
		return 0, fmt.Errorf("no market data for %s", date.Format("2006-01-02"))
	}
	return Concentration(day), nil
}

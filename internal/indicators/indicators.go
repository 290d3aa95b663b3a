// Package indicators derives moving averages, support/resistance levels,
// sentiment and a regression-based forecast from stored market data.
package indicators

import (
	"math"
	"sort"

	"github.com/mercadobr/b3-market-data/internal/models"
)

const (
	SMAPeriod = 5
	EMAShort  = 9
	EMALong   = 21

	// ForecastHorizonDays is how far beyond the last known date the
	// regression projects.
	ForecastHorizonDays = 90

	// MinForecastPoints is the smallest window the regression accepts.
	MinForecastPoints = 5

	// jitterScale bounds the random perturbation added to forecast points
	// relative to the window's standard deviation.
	jitterScale = 0.05

	sentimentThresholdPct = 5.0
)

// Fixed advisory templates bound to each sentiment signal.
const (
	AdvisoryBullish = "Strong buying pressure over the period. Watch for pullbacks before entering."
	AdvisoryBearish = "Strong selling pressure over the period. Support levels may be tested."
	AdvisoryNeutral = "Sideways movement over the period. No clear directional bias."
)

// Config selects which outputs to compute and the lookback window size.
// A Window of 0 means the full history.
type Config struct {
	Window       int
	WithSMA      bool
	WithEMA      bool
	WithForecast bool
}

// DefaultConfig computes everything over the full history.
func DefaultConfig() Config {
	return Config{WithSMA: true, WithEMA: true, WithForecast: true}
}

// JitterSource yields values in [0, 1) used to perturb forecast points.
// *rand.Rand satisfies it; tests inject a fixed or zero source.
type JitterSource interface {
	Float64() float64
}

// Window truncates records to the most recent n entries. SMA, EMA and the
// forecast are relative to the visible window, not full history.
func Window(records []*models.MarketDataRecord, n int) []*models.MarketDataRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

// SMA computes the trailing simple moving average. The first period-1
// entries are nil, where the average is undefined.
func SMA(prices []float64, period int) []*float64 {
	out := make([]*float64, len(prices))
	if period <= 0 {
		return out
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			v := sum / float64(period)
			out[i] = &v
		}
	}
	return out
}

// EMA computes the exponential moving average with smoothing factor
// 2/(period+1), seeded with the first raw price.
func EMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = prices[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// SupportResistance returns the minimum and maximum price over the full,
// unwindowed history. Deliberately longer-term than the display window;
// see the package notes in DESIGN.md.
func SupportResistance(history []*models.MarketDataRecord) models.SupportResistance {
	if len(history) == 0 {
		return models.SupportResistance{}
	}
	support := math.Inf(1)
	resistance := math.Inf(-1)
	for _, r := range history {
		p := r.Price.InexactFloat64()
		if p < support {
			support = p
		}
		if p > resistance {
			resistance = p
		}
	}
	return models.SupportResistance{Support: support, Resistance: resistance}
}

// Forecast projects prices for the horizon beyond the window's last date
// using an ordinary-least-squares trend plus bounded random jitter.
// Returns nil when the window holds fewer than MinForecastPoints entries.
func Forecast(window []*models.MarketDataRecord, horizon int, src JitterSource) []models.ForecastPoint {
	if len(window) < MinForecastPoints {
		return nil
	}

	prices := extractPrices(window)
	slope := olsSlope(prices)
	sd := stdDev(prices)
	lastPrice := prices[len(prices)-1]
	lastDate := window[len(window)-1].Date

	points := make([]models.ForecastPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		jitter := src.Float64() * sd * jitterScale
		points = append(points, models.ForecastPoint{
			Date:           lastDate.AddDate(0, 0, i),
			PredictedPrice: lastPrice + slope*float64(i) + jitter,
			IsForecast:     true,
		})
	}
	return points
}

// Sentiment compares the first and last prices of the window against the
// ±5% thresholds.
func Sentiment(window []*models.MarketDataRecord) models.Sentiment {
	if len(window) == 0 {
		return models.Sentiment{Signal: "neutral", Advisory: AdvisoryNeutral}
	}

	first := window[0].Price.InexactFloat64()
	last := window[len(window)-1].Price.InexactFloat64()

	var changePct float64
	if first != 0 {
		changePct = (last - first) / first * 100
	}

	switch {
	case changePct > sentimentThresholdPct:
		return models.Sentiment{Signal: "bullish", ChangePct: changePct, Advisory: AdvisoryBullish}
	case changePct < -sentimentThresholdPct:
		return models.Sentiment{Signal: "bearish", ChangePct: changePct, Advisory: AdvisoryBearish}
	default:
		return models.Sentiment{Signal: "neutral", ChangePct: changePct, Advisory: AdvisoryNeutral}
	}
}

// Concentration returns the share of a trading day's total amount captured
// by its top three symbols, as a percentage.
func Concentration(day []*models.MarketDataRecord) float64 {
	if len(day) == 0 {
		return 0
	}

	amounts := make([]float64, len(day))
	total := 0.0
	for i, r := range day {
		amounts[i] = r.Amount.InexactFloat64()
		total += amounts[i]
	}
	if total == 0 {
		return 0
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(amounts)))
	top := 0.0
	for i := 0; i < 3 && i < len(amounts); i++ {
		top += amounts[i]
	}
	return top / total * 100
}

// BuildSeries assembles the indicator series for a window per the config.
func BuildSeries(window []*models.MarketDataRecord, cfg Config) []models.IndicatorPoint {
	prices := extractPrices(window)

	var sma []*float64
	if cfg.WithSMA {
		sma = SMA(prices, SMAPeriod)
	}
	var ema9, ema21 []float64
	if cfg.WithEMA {
		ema9 = EMA(prices, EMAShort)
		ema21 = EMA(prices, EMALong)
	}

	series := make([]models.IndicatorPoint, len(window))
	for i, r := range window {
		p := models.IndicatorPoint{Date: r.Date, Price: prices[i]}
		if cfg.WithSMA {
			p.SMA5 = sma[i]
		}
		if cfg.WithEMA {
			p.EMA9 = ema9[i]
			p.EMA21 = ema21[i]
		}
		series[i] = p
	}
	return series
}

func extractPrices(records []*models.MarketDataRecord) []float64 {
	prices := make([]float64, len(records))
	for i, r := range records {
		prices[i] = r.Price.InexactFloat64()
	}
	return prices
}

// olsSlope fits price against index 0..n-1 and returns the slope.
func olsSlope(prices []float64) float64 {
	n := float64(len(prices))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range prices {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

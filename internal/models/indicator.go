package models

import "time"

// IndicatorPoint is one entry of the derived indicator series. SMA5 is nil
// for the first four points of the window, where the average is undefined.
type IndicatorPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
	SMA5  *float64  `json:"sma5,omitempty"`
	EMA9  float64   `json:"ema9"`
	EMA21 float64   `json:"ema21"`
}

// ForecastPoint is a projected price beyond the last known date. It carries
// no actual price; consumers render it distinctly via IsForecast.
type ForecastPoint struct {
	Date           time.Time `json:"date"`
	PredictedPrice float64   `json:"predicted_price"`
	IsForecast     bool      `json:"is_forecast"`
}

// SupportResistance holds the minimum and maximum price over the full
// historical series, deliberately longer-term than the display window.
type SupportResistance struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// Sentiment classifies the first-to-last price movement of the window.
type Sentiment struct {
	Signal    string  `json:"signal"`
	ChangePct float64 `json:"change_pct"`
	Advisory  string  `json:"advisory"`
}

// IndicatorBundle is the read contract served to the presentation layer.
type IndicatorBundle struct {
	Symbol            string            `json:"symbol"`
	Window            int               `json:"window"`
	Series            []IndicatorPoint  `json:"series"`
	Forecast          []ForecastPoint   `json:"forecast"`
	SupportResistance SupportResistance `json:"support_resistance"`
	Sentiment         Sentiment         `json:"sentiment"`
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mercadobr/b3-market-data/internal/cache"
	"github.com/mercadobr/b3-market-data/internal/database"
	"github.com/mercadobr/b3-market-data/internal/extract"
	"github.com/mercadobr/b3-market-data/internal/fetch"
	"github.com/mercadobr/b3-market-data/internal/indicators"
	"github.com/mercadobr/b3-market-data/internal/ingest"
	"github.com/mercadobr/b3-market-data/internal/models"
)

const dateLayout = "2006-01-02"

// maxUploadSize caps spreadsheet uploads. A full trading day is well under
// a megabyte; 16 MiB leaves ample headroom.
const maxUploadSize = 16 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db            *database.DB
	service       *ingest.Service
	engine        *indicators.Engine
	cache         *cache.Cache
	sourcePageURL string
}

// NewHandler creates a new Handler. sourcePageURL is surfaced to clients
// when every transport fails, so an operator can download the file by hand.
func NewHandler(db *database.DB, service *ingest.Service, engine *indicators.Engine, c *cache.Cache, sourcePageURL string) *Handler {
	return &Handler{
		db:            db,
		service:       service,
		engine:        engine,
		cache:         c,
		sourcePageURL: sourcePageURL,
	}
}

// SyncDay handles POST /sync
func (h *Handler) SyncDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.SyncDay(r.Context(), date)
	if errors.Is(err, fetch.ErrAllTransportsFailed) {
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"error":           err.Error(),
			"manual_fallback": "download the daily bulletin yourself and POST it to /api/v1/sync/upload",
			"source_page":     h.sourcePageURL,
		})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// UploadDay handles POST /sync/upload, the manual fallback. Expects a
// multipart form with a "date" field and a "file" spreadsheet.
func (h *Handler) UploadDay(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	result, err := h.service.IngestSpreadsheet(r.Context(), date, data, "upload")
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PasteDay handles POST /sync/paste, tab-separated text copied straight
// from the exchange page.
func (h *Handler) PasteDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.IngestText(r.Context(), date, req.Text)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

type recordRequest struct {
	Date      string          `json:"date"`
	Symbol    string          `json:"symbol"`
	TitleType string          `json:"title_type"`
	Price     decimal.Decimal `json:"price"`
	Variation decimal.Decimal `json:"variation"`
	NumTrades int64           `json:"num_trades"`
	Quantity  int64           `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// AddMarketData handles POST /market-data, the single-record manual entry.
// Accepts one record or an array of them.
func (h *Handler) AddMarketData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var reqs []recordRequest
	if err := json.Unmarshal(body, &reqs); err != nil {
		var single recordRequest
		if err := json.Unmarshal(body, &single); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		reqs = []recordRequest{single}
	}
	if len(reqs) == 0 {
		http.Error(w, "no records provided", http.StatusBadRequest)
		return
	}

	records := make([]*models.MarketDataRecord, 0, len(reqs))
	for _, req := range reqs {
		date, err := parseDate(req.Date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
		if symbol == "" {
			http.Error(w, "symbol is required", http.StatusBadRequest)
			return
		}
		if len(symbol) > extract.MaxSymbolLen {
			http.Error(w, fmt.Sprintf("symbol exceeds %d characters", extract.MaxSymbolLen), http.StatusBadRequest)
			return
		}
		records = append(records, &models.MarketDataRecord{
			Date:      date,
			Symbol:    symbol,
			TitleType: req.TitleType,
			Price:     req.Price,
			Variation: req.Variation,
			NumTrades: req.NumTrades,
			Quantity:  req.Quantity,
			Amount:    req.Amount,
		})
	}

	result, err := h.service.IngestRecords(r.Context(), records, "manual")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// GetHistory handles GET /market-data/{symbol}
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	records, err := h.db.GetMarketDataBySymbol(symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		http.Error(w, fmt.Sprintf("no market data for %s", symbol), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// GetLatest handles GET /market-data/{symbol}/latest
func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	record, err := h.db.GetLatestMarketData(symbol)
	if err != nil {
		if strings.Contains(err.Error(), "no market data") {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// GetDay handles GET /days/{date}
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(mux.Vars(r)["date"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.db.GetMarketDataByDate(date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// GetSymbols handles GET /symbols
func (h *Handler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.db.GetSymbols()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, symbols)
}

// DeleteMarketData handles DELETE /market-data/{id}
func (h *Handler) DeleteMarketData(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteRecord(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDay handles DELETE /days/{date}
func (h *Handler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(mux.Vars(r)["date"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	affected, err := h.service.DeleteDay(r.Context(), date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"deleted": affected})
}

// GetIndicators handles GET /indicators/{symbol}?window=90&forecast=true
func (h *Handler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	window, err := parseWindow(r.URL.Query().Get("window"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := indicators.Config{
		Window:       window,
		WithSMA:      true,
		WithEMA:      true,
		WithForecast: r.URL.Query().Get("forecast") != "false",
	}

	if bundle, ok := h.cache.GetIndicators(r.Context(), symbol, window, cfg.WithForecast); ok {
		respondJSON(w, http.StatusOK, bundle)
		return
	}

	bundle, err := h.engine.GetIndicators(symbol, cfg)
	if err != nil {
		if strings.Contains(err.Error(), "no market data") {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.cache.SetIndicators(r.Context(), bundle, cfg.WithForecast)
	respondJSON(w, http.StatusOK, bundle)
}

// GetConcentration handles GET /concentration?date=2024-03-15
func (h *Handler) GetConcentration(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	share, err := h.engine.DayConcentration(date)
	if err != nil {
		if strings.Contains(err.Error(), "no market data") {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":        date.Format(dateLayout),
		"top3_share":  share,
		"description": "share of the day's traded amount held by the three largest symbols",
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required (format %s)", dateLayout)
	}
	date, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (format %s)", s, dateLayout)
	}
	return date, nil
}

// parseWindow maps the window query parameter to a day count. "all" and 0
// mean the full history; absent defaults to 90 days.
func parseWindow(s string) (int, error) {
	switch s {
	case "":
		return 90, nil
	case "all":
		return 0, nil
	}
	window, err := strconv.Atoi(s)
	if err != nil || window < 0 {
		return 0, fmt.Errorf("invalid window %q", s)
	}
	return window, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

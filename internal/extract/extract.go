// Package extract turns raw bulletin content (a cell grid, pasted text or
// an uploaded spreadsheet) into typed market data records.
package extract

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercadobr/b3-market-data/internal/models"
	"github.com/mercadobr/b3-market-data/internal/parser"
)

const (
	// DefaultTitleType is stamped when the bulletin leaves the market
	// category column blank.
	DefaultTitleType = "VISTA"

	// MaxSymbolLen caps canonical symbols; B3 tickers never exceed it.
	MaxSymbolLen = 12

	// headerScanRows is how deep we look for the header marker before
	// assuming the first row is the header.
	headerScanRows = 10
)

var (
	ErrEmptyGrid  = errors.New("empty grid")
	ErrNoDataRows = errors.New("no valid data rows")
)

// headerMarkers identify the bulletin's column-title row.
var headerMarkers = []string{"papel", "código", "codigo", "símbolo", "simbolo"}

// noiseMarkers flag header/footer lines in pasted text that carry no data.
var noiseMarkers = []string{
	"papel", "código", "codigo", "símbolo", "simbolo",
	"copyright", "direitos reservados", "b3 s.a", "bovespa", "fonte:",
}

// FromGrid maps a 2-D grid of cells to records, stamping date onto every
// one. The header row is located by marker keyword within the first rows;
// if none matches, row zero is assumed to be the header.
func FromGrid(grid [][]string, date time.Time) ([]*models.MarketDataRecord, error) {
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}

	headerRow := 0
	for i := 0; i < len(grid) && i < headerScanRows; i++ {
		if rowHasMarker(grid[i]) {
			headerRow = i
			break
		}
	}

	var records []*models.MarketDataRecord
	for _, row := range grid[headerRow+1:] {
		rec, ok := mapRow(row, date)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoDataRows
	}
	return records, nil
}

// FromTSV maps newline-delimited, tab-separated text with seven ordered
// fields per line. Header and footer noise lines are filtered by keyword.
func FromTSV(text string, date time.Time) ([]*models.MarketDataRecord, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var records []*models.MarketDataRecord
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || lineIsNoise(line) {
			continue
		}
		rec, ok := mapRow(strings.Split(line, "\t"), date)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoDataRows
	}
	return records, nil
}

// mapRow converts one row via fixed column offsets:
// symbol, title type, price, variation, trades, quantity, amount.
func mapRow(row []string, date time.Time) (*models.MarketDataRecord, bool) {
	if len(row) == 0 {
		return nil, false
	}

	symbol := strings.ToUpper(strings.TrimSpace(cell(row, 0)))
	if symbol == "" {
		return nil, false
	}
	if len(symbol) > MaxSymbolLen {
		symbol = symbol[:MaxSymbolLen]
	}

	titleType := strings.TrimSpace(cell(row, 1))
	if titleType == "" {
		titleType = DefaultTitleType
	}

	return &models.MarketDataRecord{
		Date:      date,
		Symbol:    symbol,
		TitleType: titleType,
		Price:     decimal.NewFromFloat(parser.ParseFloat(cell(row, 2))),
		Variation: decimal.NewFromFloat(parser.ParseFloat(cell(row, 3))),
		NumTrades: parser.ParseInt(cell(row, 4)),
		Quantity:  parser.ParseInt(cell(row, 5)),
		Amount:    decimal.NewFromFloat(parser.ParseFloat(cell(row, 6))),
	}, true
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func rowHasMarker(row []string) bool {
	for _, c := range row {
		lower := strings.ToLower(c)
		for _, m := range headerMarkers {
			if strings.Contains(lower, m) {
				return true
			}
		}
	}
	return false
}

func lineIsNoise(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range noiseMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	// Data lines carry seven tab-separated fields.
	if len(strings.Split(line, "\t")) < 7 {
		return true
	}
	return false
}

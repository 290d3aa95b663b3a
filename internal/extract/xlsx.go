package extract

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mercadobr/b3-market-data/internal/models"
)

// ErrEmptyWorkbook is returned when the spreadsheet container decodes but
// holds no sheets.
var ErrEmptyWorkbook = errors.New("empty workbook")

// FromXLSX decodes a spreadsheet container into a cell grid and extracts
// records from its first sheet.
func FromXLSX(data []byte, date time.Time) ([]*models.MarketDataRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return FromGrid(grid, date)
}

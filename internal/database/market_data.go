package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mercadobr/b3-market-data/internal/models"
)

// UpsertMarketData merges a batch of records into the store keyed by
// (date, symbol). Re-running an identical batch leaves the store unchanged;
// on conflict the whole record is overwritten, never single fields.
// Returns the number of affected rows.
func (db *DB) UpsertMarketData(records []*models.MarketDataRecord) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO market_data (date, symbol, title_type, price, variation, num_trades, quantity, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (date, symbol) DO UPDATE SET
			title_type = EXCLUDED.title_type,
			price = EXCLUDED.price,
			variation = EXCLUDED.variation,
			num_trades = EXCLUDED.num_trades,
			quantity = EXCLUDED.quantity,
			amount = EXCLUDED.amount
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	var affected int64
	for _, r := range records {
		res, err := stmt.Exec(r.Date, r.Symbol, r.TitleType, r.Price, r.Variation, r.NumTrades, r.Quantity, r.Amount, now)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert market data for %s: %w", r.Symbol, err)
		}
		n, _ := res.RowsAffected()
		affected += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return affected, nil
}

// GetMarketDataBySymbol retrieves the full history for a symbol, oldest
// first, the order the indicator engine expects.
func (db *DB) GetMarketDataBySymbol(symbol string) ([]*models.MarketDataRecord, error) {
	query := `
		SELECT id, date, symbol, title_type, price, variation, num_trades, quantity, amount, created_at
		FROM market_data
		WHERE symbol = $1
		ORDER BY date ASC
	`
	return db.scanMarketData(db.conn.Query(query, symbol))
}

// GetMarketDataByDate retrieves every record for a trading day.
func (db *DB) GetMarketDataByDate(date time.Time) ([]*models.MarketDataRecord, error) {
	query := `
		SELECT id, date, symbol, title_type, price, variation, num_trades, quantity, amount, created_at
		FROM market_data
		WHERE date = $1
		ORDER BY symbol
	`
	return db.scanMarketData(db.conn.Query(query, date))
}

// GetMarketDataByID retrieves a single record by ID.
func (db *DB) GetMarketDataByID(id int) (*models.MarketDataRecord, error) {
	query := `
		SELECT id, date, symbol, title_type, price, variation, num_trades, quantity, amount, created_at
		FROM market_data
		WHERE id = $1
	`
	var r models.MarketDataRecord
	err := db.conn.QueryRow(query, id).Scan(
		&r.ID, &r.Date, &r.Symbol, &r.TitleType, &r.Price, &r.Variation, &r.NumTrades, &r.Quantity, &r.Amount, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("market data not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market data: %w", err)
	}
	return &r, nil
}

// GetLatestMarketData retrieves the most recent record for a symbol.
func (db *DB) GetLatestMarketData(symbol string) (*models.MarketDataRecord, error) {
	query := `
		SELECT id, date, symbol, title_type, price, variation, num_trades, quantity, amount, created_at
		FROM market_data
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`
	var r models.MarketDataRecord
	err := db.conn.QueryRow(query, symbol).Scan(
		&r.ID, &r.Date, &r.Symbol, &r.TitleType, &r.Price, &r.Variation, &r.NumTrades, &r.Quantity, &r.Amount, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no market data found for %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest market data: %w", err)
	}
	return &r, nil
}

// GetSymbols lists the distinct symbols present in the store.
func (db *DB) GetSymbols() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT symbol FROM market_data ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, nil
}

// DeleteMarketData removes a single record by ID.
func (db *DB) DeleteMarketData(id int) error {
	result, err := db.conn.Exec(`DELETE FROM market_data WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete market data: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("market data not found: %d", id)
	}
	return nil
}

// DeleteMarketDataByDate removes every record for a trading day, the
// full-day correction path. Not transactionally linked to any following
// re-insert; an interruption between the two leaves the day empty.
func (db *DB) DeleteMarketDataByDate(date time.Time) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM market_data WHERE date = $1`, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete market data for %s: %w", date.Format("2006-01-02"), err)
	}
	return result.RowsAffected()
}

func (db *DB) scanMarketData(rows *sql.Rows, err error) ([]*models.MarketDataRecord, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query market data: %w", err)
	}
	defer rows.Close()

	var records []*models.MarketDataRecord
	for rows.Next() {
		var r models.MarketDataRecord
		err := rows.Scan(
			&r.ID, &r.Date, &r.Symbol, &r.TitleType, &r.Price, &r.Variation, &r.NumTrades, &r.Quantity, &r.Amount, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market data: %w", err)
		}
		records = append(records, &r)
	}

	return records, nil
}

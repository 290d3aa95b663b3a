// Package ingest orchestrates the write path: fetch, extract, deduplicate
// and upsert, with manual entry points for when automation fails.
package ingest

import "github.com/mercadobr/b3-market-data/internal/models"

// Dedupe collapses batch-local duplicates of the (date, symbol) key,
// keeping the last occurrence in input order. Output order is stable on
// first appearance. Also returns how many duplicates were dropped, for
// operator feedback.
func Dedupe(records []*models.MarketDataRecord) ([]*models.MarketDataRecord, int) {
	index := make(map[string]int, len(records))
	out := make([]*models.MarketDataRecord, 0, len(records))

	for _, r := range records {
		key := r.Key()
		if i, seen := index[key]; seen {
			out[i] = r // last write wins, position stays stable
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}

	return out, len(records) - len(out)
}

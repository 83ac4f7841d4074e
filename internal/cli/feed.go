package cli

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"merval-trader/internal/engine"
	"merval-trader/internal/errors"
	"merval-trader/internal/models"
)

// ingestCSV reads price points from a CSV file and feeds them into the
// engine's ingest buffer. Expected columns: symbol, RFC3339 timestamp,
// price, and optional volume. This is the stand-in market data feed for
// paper trading; a live deployment replaces it with a real feed calling
// Engine.Ingest directly.
func ingestCSV(eng *engine.Engine, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "opening price file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, errors.Wrap(err, "reading price file")
	}

	count := 0
	for i, record := range records {
		if len(record) < 3 {
			continue
		}
		// Skip a header row.
		if i == 0 && record[0] == "symbol" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, record[1])
		if err != nil {
			return count, errors.Wrapf(err, "row %d: bad timestamp %q", i+1, record[1])
		}
		price, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return count, errors.Wrapf(err, "row %d: bad price %q", i+1, record[2])
		}
		var volume int64
		if len(record) > 3 && record[3] != "" {
			volume, _ = strconv.ParseInt(record[3], 10, 64)
		}

		eng.Ingest(models.PricePoint{
			Symbol:    record[0],
			Timestamp: ts,
			Price:     price,
			Volume:    volume,
		})
		count++
	}
	return count, nil
}

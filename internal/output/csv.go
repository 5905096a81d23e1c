package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/henrybloomingdale/pubmed-go/internal/eutils"
)

// writeRecordsCSV writes one row per record under a RecordKeys header.
func writeRecordsCSV(path string, records []eutils.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(eutils.RecordKeys); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return fmt.Errorf("writing CSV row for PMID %s: %w", r.PMID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV output: %w", err)
	}
	return nil
}

package writer

import (
	"encoding/csv"
	"fmt"
	"os"

	"iedb-epitope-parser/internal/record"
)

// WriteCSV serializes the table to path with the fixed column header,
// replacing any existing file. Filesystem failure here is the one fatal
// error of the pipeline.
func WriteCSV(rows []record.Row, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w := csv.NewWriter(file)

	if err := w.Write(record.Header); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Values()); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	return nil
}

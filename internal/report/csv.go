package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

// csvHeader matches the columns downstream spreadsheets already expect.
var csvHeader = []string{"original", "new", "category", "timestamp", "status", "error"}

// WriteCSV writes outcomes to path, one row per file.
func WriteCSV(path string, outcomes []entity.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range outcomes {
		row := []string{
			o.Original,
			o.New,
			o.Category,
			o.Timestamp.Format(time.RFC3339),
			string(o.Status),
			o.Error,
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}

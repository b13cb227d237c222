package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"bloodbank/m/domain"
	"bloodbank/m/internal/store"
)

// Summary reports what an import did.
type Summary struct {
	domain.IntakeSummary
	Malformed int
}

// columns expected in the header, in any order.
var columns = []string{"barcode", "date_collected", "component", "volume"}

// LoadUnitsFile imports units from a CSV file through the regular intake
// path, so existing barcodes are skipped rather than overwritten.
func LoadUnitsFile(ctx context.Context, units *store.UnitStore, log *zap.Logger, csvPath string) (Summary, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return Summary{}, fmt.Errorf("open %s: %w", csvPath, err)
	}
	defer file.Close()
	return LoadUnits(ctx, units, log, file)
}

// LoadUnits reads a CSV with a header row naming barcode, date_collected,
// component and volume. Short or unreadable rows are counted as malformed
// and skipped.
func LoadUnits(ctx context.Context, units *store.UnitStore, log *zap.Logger, r io.Reader) (Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Summary{}, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range columns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Summary{}, fmt.Errorf("header is missing columns: %s", strings.Join(missing, ", "))
	}

	var (
		summary Summary
		entries []domain.IntakeEntry
		line    = 1
	)
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn("unable to read unit row", zap.Int("line", line), zap.Error(err))
			summary.Malformed++
			continue
		}
		field := func(name string) string {
			if i := index[name]; i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		if len(record) < len(columns) {
			summary.Malformed++
			continue
		}
		entries = append(entries, domain.IntakeEntry{
			BarcodeID:     field("barcode"),
			DateCollected: optional(field("date_collected")),
			Component:     field("component"),
			Volume:        optional(field("volume")),
		})
	}

	results, err := units.Intake(ctx, entries)
	summary.IntakeSummary = domain.Summarize(results)
	if err != nil {
		return summary, err
	}
	log.Info("imported blood units",
		zap.Int("inserted", summary.Inserted),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("unknown_component", summary.Unknown),
		zap.Int("blank_barcode", summary.Blank),
		zap.Int("malformed", summary.Malformed),
	)
	return summary, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package cleaning

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/internal/schema"
)

// LoadFile reads and cleans the input file at path. Every failure is an
// apperr.ErrDataFormat; nothing downstream should run after one.
func LoadFile(ctx context.Context, path string, s schema.Schema) (*dataset.Table, Report, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	raw, err := ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("dataset read failed")
		return nil, Report{}, err
	}
	tbl, rep, err := Clean(raw, s)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("dataset cleaning failed")
		return nil, rep, err
	}

	logger.Info().
		Str("path", path).
		Int("rows_read", rep.RowsRead).
		Int("rows_kept", rep.RowsKept).
		Int("dropped_missing_required", rep.DroppedMissingRequired).
		Int("dropped_non_positive_quantity", rep.DroppedNonPositiveQuantity).
		Int("dropped_negative_sales", rep.DroppedNegativeSales).
		Int("imputed_profit", rep.ImputedProfit).
		Int("duplicates_removed", rep.DuplicatesRemoved).
		Dur("elapsed", time.Since(start)).
		Msg("dataset loaded")
	return tbl, rep, nil
}

// Encode renders a table back to raw text rows under its schema's header. Dates use
// ISO format and a missing discount is an empty cell.
func Encode(t *dataset.Table) RawTable {
	out := RawTable{Header: t.Schema.Columns(), Rows: make([][]string, 0, len(t.Records))}
	for _, r := range t.Records {
		discount := ""
		if r.HasDiscount {
			discount = formatFloat(r.Discount)
		}
		out.Rows = append(out.Rows, []string{
			r.OrderID, r.CustomerID, r.OrderDate.Format("2006-01-02"), r.ProductName,
			r.Category, r.SubCategory, r.Region, r.Segment, r.State, r.City,
			formatFloat(r.Sales), formatFloat(r.Profit), strconv.Itoa(r.Quantity), discount,
		})
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

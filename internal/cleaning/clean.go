// Package cleaning turns raw order rows into a validated dataset.Table.
package cleaning

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/internal/schema"
	"github.com/vinodismyname/storepulse/pkg/apperr"
)

// Report summarizes what cleaning did to the input, for the data-health panel.
type Report struct {
	RowsRead                   int `json:"rows_read"`
	DroppedMissingRequired     int `json:"dropped_missing_required"`
	DroppedNonPositiveQuantity int `json:"dropped_non_positive_quantity"`
	DroppedNegativeSales       int `json:"dropped_negative_sales"`
	ImputedSales               int `json:"imputed_sales"`
	ImputedProfit              int `json:"imputed_profit"`
	ImputedQuantity            int `json:"imputed_quantity"`
	DuplicatesRemoved          int `json:"duplicates_removed"`
	MissingDiscount            int `json:"missing_discount"`
	RowsKept                   int `json:"rows_kept"`
}

// Dropped returns the number of rows removed for any reason.
func (r Report) Dropped() int {
	return r.DroppedMissingRequired + r.DroppedNonPositiveQuantity + r.DroppedNegativeSales + r.DuplicatesRemoved
}

// Lines renders the report as short health-monitor lines.
func (r Report) Lines() []string {
	return []string{
		fmt.Sprintf("Rows: `%d` kept of `%d` read", r.RowsKept, r.RowsRead),
		fmt.Sprintf("Dropped: `%d` missing required fields, `%d` non-positive quantity, `%d` negative sales",
			r.DroppedMissingRequired, r.DroppedNonPositiveQuantity, r.DroppedNegativeSales),
		fmt.Sprintf("Imputed to zero: `%d` sales, `%d` profit, `%d` quantity", r.ImputedSales, r.ImputedProfit, r.ImputedQuantity),
		fmt.Sprintf("Duplicate rows removed: `%d`", r.DuplicatesRemoved),
		fmt.Sprintf("Missing discount values: `%d`", r.MissingDiscount),
	}
}

// parsedRow is a typed row whose numeric and date fields may still be missing.
type parsedRow struct {
	rec         dataset.Record
	hasDate     bool
	hasSales    bool
	hasProfit   bool
	hasQuantity bool
}

// columns holds the position of each schema column in the raw header.
type columns struct {
	orderID, customerID, orderDate, productName, category, subCategory int
	region, segment, state, city, sales, profit, quantity, discount    int
}

// Clean validates raw rows in a fixed order: parse and trim, drop rows missing
// required fields, drop non-positive quantity, drop negative sales, impute missing
// numerics to zero, then remove exact duplicates. The input is not modified.
func Clean(raw RawTable, s schema.Schema) (*dataset.Table, Report, error) {
	var rep Report
	if err := s.Validate(); err != nil {
		return nil, rep, apperr.NewDataFormat("invalid schema", err)
	}
	cols, err := resolveColumns(raw.Header, s)
	if err != nil {
		return nil, rep, err
	}
	rep.RowsRead = len(raw.Rows)

	// Parse, trim and coerce. Bad values become missing, never errors.
	parsed := make([]parsedRow, 0, len(raw.Rows))
	for _, cells := range raw.Rows {
		parsed = append(parsed, parseRow(cells, cols))
	}

	valid := make([]parsedRow, 0, len(parsed))
	for _, p := range parsed {
		switch {
		case !p.hasDate || !p.hasSales || p.rec.Region == "" || p.rec.Category == "":
			rep.DroppedMissingRequired++
		case !p.hasQuantity || p.rec.Quantity <= 0:
			// A missing quantity cannot satisfy quantity > 0.
			rep.DroppedNonPositiveQuantity++
		case p.rec.Sales < 0:
			rep.DroppedNegativeSales++
		default:
			valid = append(valid, p)
		}
	}

	records := make([]dataset.Record, 0, len(valid))
	for _, p := range valid {
		if !p.hasSales {
			p.rec.Sales = 0
			rep.ImputedSales++
		}
		if !p.hasProfit {
			p.rec.Profit = 0
			rep.ImputedProfit++
		}
		if !p.hasQuantity {
			p.rec.Quantity = 0
			rep.ImputedQuantity++
		}
		records = append(records, p.rec)
	}

	records, rep.DuplicatesRemoved = dedupe(records)
	for _, r := range records {
		if !r.HasDiscount {
			rep.MissingDiscount++
		}
	}
	rep.RowsKept = len(records)

	return &dataset.Table{Schema: s, Records: records}, rep, nil
}

// Revalidate re-applies the row filters and deduplication to an already typed table.
// On a table produced by Clean it removes nothing.
func Revalidate(t *dataset.Table) (*dataset.Table, Report, error) {
	return Clean(Encode(t), t.Schema)
}

func resolveColumns(header []string, s schema.Schema) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	var missing []string
	find := func(name string) int {
		i, ok := pos[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}
	c := columns{
		orderID:     find(s.OrderID),
		customerID:  find(s.CustomerID),
		orderDate:   find(s.OrderDate),
		productName: find(s.ProductName),
		category:    find(s.Category),
		subCategory: find(s.SubCategory),
		region:      find(s.Region),
		segment:     find(s.Segment),
		state:       find(s.State),
		city:        find(s.City),
		sales:       find(s.Sales),
		profit:      find(s.Profit),
		quantity:    find(s.Quantity),
		discount:    find(s.Discount),
	}
	if len(missing) > 0 {
		return c, apperr.NewDataFormat("missing required columns: "+strings.Join(missing, ", "), nil)
	}
	return c, nil
}

func parseRow(cells []string, c columns) parsedRow {
	cell := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	var p parsedRow
	p.rec = dataset.Record{
		OrderID:     cell(c.orderID),
		CustomerID:  cell(c.customerID),
		ProductName: cell(c.productName),
		Category:    cell(c.category),
		SubCategory: cell(c.subCategory),
		Region:      cell(c.region),
		Segment:     cell(c.segment),
		State:       cell(c.state),
		City:        cell(c.city),
	}
	p.rec.OrderDate, p.hasDate = parseDate(cell(c.orderDate))
	p.rec.Sales, p.hasSales = parseNumber(cell(c.sales))
	p.rec.Profit, p.hasProfit = parseNumber(cell(c.profit))
	p.rec.Quantity, p.hasQuantity = parseQuantity(cell(c.quantity))
	p.rec.Discount, p.rec.HasDiscount = parseNumber(cell(c.discount))
	return p
}

// dedupe removes records identical in every field, keeping the first occurrence.
func dedupe(records []dataset.Record) ([]dataset.Record, int) {
	seen := make(map[dataset.Record]struct{}, len(records))
	out := records[:0]
	removed := 0
	for _, r := range records {
		if _, ok := seen[r]; ok {
			removed++
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out, removed
}

// parseNumber accepts plain decimals plus "$" and thousands separators; a "%" suffix
// divides by 100. NaN and infinities count as missing.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$':
			return -1
		default:
			return r
		}
	}, s)
	clean = strings.TrimSpace(clean)
	scale := 1.0
	if strings.HasSuffix(clean, "%") {
		clean = strings.TrimSpace(strings.TrimSuffix(clean, "%"))
		scale = 100
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f / scale, true
}

func parseQuantity(s string) (int, bool) {
	f, ok := parseNumber(s)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

var dateLayouts = []string{
	"1/2/2006", "2006-01-02", "2006/01/02", "1/2/06", "1-2-2006",
	time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "1/2/2006 15:04",
}

// parseDate returns the calendar date (UTC midnight) of s.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

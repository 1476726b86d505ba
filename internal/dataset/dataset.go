// Package dataset holds the cleaned order-line model shared by every stage of the pipeline.
package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/vinodismyname/storepulse/internal/schema"
)

// Record is one validated order line.
type Record struct {
	OrderID     string
	CustomerID  string
	OrderDate   time.Time
	ProductName string
	Category    string
	SubCategory string
	Region      string
	Segment     string
	State       string
	City        string
	Sales       float64
	Profit      float64
	Quantity    int
	Discount    float64
	HasDiscount bool

	// Time features, set by features.DeriveTimeFeatures.
	Month time.Time
	Year  int
}

// Table is an immutable collection of cleaned records. Stages that add columns
// return a new Table; nothing downstream writes to Records.
type Table struct {
	Schema          schema.Schema
	Records         []Record
	HasTimeFeatures bool
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Clone returns a table whose record slice can be modified without affecting t.
func (t *Table) Clone() *Table {
	out := &Table{Schema: t.Schema, HasTimeFeatures: t.HasTimeFeatures}
	out.Records = make([]Record, len(t.Records))
	copy(out.Records, t.Records)
	return out
}

// MonthBucket truncates a date to the first day of its month (UTC).
func MonthBucket(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Measure names a numeric column.
type Measure string

const (
	Sales    Measure = "sales"
	Profit   Measure = "profit"
	Quantity Measure = "quantity"
	Discount Measure = "discount"
)

// Measures lists the numeric columns in correlation-matrix order.
var Measures = []Measure{Sales, Profit, Quantity, Discount}

// ParseMeasure maps a case-insensitive name to a Measure. Empty means Sales.
func ParseMeasure(s string) (Measure, error) {
	switch m := Measure(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Sales, nil
	case Sales, Profit, Quantity, Discount:
		return m, nil
	default:
		return "", fmt.Errorf("unknown measure %q", s)
	}
}

// Value returns the measure for r and whether it is present. Only discount can be missing.
func (m Measure) Value(r Record) (float64, bool) {
	switch m {
	case Sales:
		return r.Sales, true
	case Profit:
		return r.Profit, true
	case Quantity:
		return float64(r.Quantity), true
	case Discount:
		return r.Discount, r.HasDiscount
	}
	return 0, false
}

// Title returns the display name ("Sales", "Profit", ...).
func (m Measure) Title() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

package analytics

import (
	"sort"
	"time"

	"github.com/vinodismyname/storepulse/internal/dataset"
)

// MonthValue is a measure total for one month bucket.
type MonthValue struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// GroupValue is a measure total for one group key.
type GroupValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// CrossTabRow is total sales for a (primary, category) pair.
type CrossTabRow struct {
	Primary  string  `json:"primary"`
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
}

// SegmentRow carries sales and profit for one customer segment.
type SegmentRow struct {
	Segment string  `json:"segment"`
	Sales   float64 `json:"sales"`
	Profit  float64 `json:"profit"`
}

// QuantityProfit is one record projected for scatter rendering.
type QuantityProfit struct {
	Quantity int     `json:"quantity"`
	Profit   float64 `json:"profit"`
	Category string  `json:"category"`
}

// MonthOf returns the record's month bucket, deriving it when the table has no time
// features yet.
func MonthOf(t *dataset.Table, r dataset.Record) time.Time {
	if t.HasTimeFeatures {
		return r.Month
	}
	return dataset.MonthBucket(r.OrderDate)
}

// MonthlyTotals sums m per month bucket in ascending month order. Missing values
// (discount only) contribute nothing.
func MonthlyTotals(t *dataset.Table, m dataset.Measure) []MonthValue {
	acc := map[time.Time]float64{}
	for _, r := range t.Records {
		month := MonthOf(t, r)
		v, _ := m.Value(r)
		acc[month] += v
	}
	out := make([]MonthValue, 0, len(acc))
	for month, v := range acc {
		out = append(out, MonthValue{Month: month, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// SalesTrend is total sales per month, ascending. Months are strictly increasing.
func SalesTrend(t *dataset.Table) []MonthValue {
	return MonthlyTotals(t, dataset.Sales)
}

// sumBy totals val per key and returns the groups in ascending key order.
func sumBy(t *dataset.Table, key func(dataset.Record) string, val func(dataset.Record) float64) []GroupValue {
	acc := map[string]float64{}
	for _, r := range t.Records {
		acc[key(r)] += val(r)
	}
	out := make([]GroupValue, 0, len(acc))
	for k, v := range acc {
		out = append(out, GroupValue{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func sales(r dataset.Record) float64  { return r.Sales }
func profit(r dataset.Record) float64 { return r.Profit }

func region(r dataset.Record) string   { return r.Region }
func category(r dataset.Record) string { return r.Category }
func segment(r dataset.Record) string  { return r.Segment }
func product(r dataset.Record) string  { return r.ProductName }
func state(r dataset.Record) string    { return r.State }

// SalesByCategory is the sales distribution across categories.
func SalesByCategory(t *dataset.Table) []GroupValue { return sumBy(t, category, sales) }

// SalesByRegion totals sales per region.
func SalesByRegion(t *dataset.Table) []GroupValue { return sumBy(t, region, sales) }

// ProfitByRegion totals profit per region.
func ProfitByRegion(t *dataset.Table) []GroupValue { return sumBy(t, region, profit) }

// ProfitByCategory totals profit per category.
func ProfitByCategory(t *dataset.Table) []GroupValue { return sumBy(t, category, profit) }

// SalesByProduct totals sales per product name, ascending by name.
func SalesByProduct(t *dataset.Table) []GroupValue { return sumBy(t, product, sales) }

// ProfitByProduct totals profit per product name, ascending by name.
func ProfitByProduct(t *dataset.Table) []GroupValue { return sumBy(t, product, profit) }

func crossTab(t *dataset.Table, primary func(dataset.Record) string) []CrossTabRow {
	type pair struct{ p, c string }
	acc := map[pair]float64{}
	for _, r := range t.Records {
		acc[pair{primary(r), r.Category}] += r.Sales
	}
	out := make([]CrossTabRow, 0, len(acc))
	for k, v := range acc {
		out = append(out, CrossTabRow{Primary: k.p, Category: k.c, Sales: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Primary != out[j].Primary {
			return out[i].Primary < out[j].Primary
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// SalesByRegionCategory is the region x category sales cross-tab.
func SalesByRegionCategory(t *dataset.Table) []CrossTabRow { return crossTab(t, region) }

// SalesBySegmentCategory is the segment x category sales cross-tab.
func SalesBySegmentCategory(t *dataset.Table) []CrossTabRow { return crossTab(t, segment) }

// SegmentPerformance totals sales and profit per segment.
func SegmentPerformance(t *dataset.Table) []SegmentRow {
	s := sumBy(t, segment, sales)
	p := sumBy(t, segment, profit)
	out := make([]SegmentRow, len(s))
	for i := range s {
		out[i] = SegmentRow{Segment: s[i].Key, Sales: s[i].Value, Profit: p[i].Value}
	}
	return out
}

// TopProducts returns the n products with the highest summed sales. Ties keep
// ascending-name order. n <= 0 returns every product.
func TopProducts(t *dataset.Table, n int) []GroupValue {
	g := SalesByProduct(t)
	sort.SliceStable(g, func(i, j int) bool { return g[i].Value > g[j].Value })
	return head(g, n)
}

// LossProducts returns the n products with the lowest summed profit.
func LossProducts(t *dataset.Table, n int) []GroupValue {
	g := ProfitByProduct(t)
	sort.SliceStable(g, func(i, j int) bool { return g[i].Value < g[j].Value })
	return head(g, n)
}

func head(g []GroupValue, n int) []GroupValue {
	if n > 0 && n < len(g) {
		return g[:n]
	}
	return g
}

// QuantityVsProfit projects every record to (quantity, profit, category), in table order.
func QuantityVsProfit(t *dataset.Table) []QuantityProfit {
	out := make([]QuantityProfit, len(t.Records))
	for i, r := range t.Records {
		out[i] = QuantityProfit{Quantity: r.Quantity, Profit: r.Profit, Category: r.Category}
	}
	return out
}

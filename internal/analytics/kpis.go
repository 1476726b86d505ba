// Package analytics holds the pure reducers that turn a cleaned table into KPIs and
// grouped summaries. Nothing here mutates its input or logs.
package analytics

import (
	"github.com/vinodismyname/storepulse/internal/dataset"
)

// KPI names in report order.
const (
	KPITotalSales    = "Total Sales"
	KPITotalProfit   = "Total Profit"
	KPIOrders        = "Orders"
	KPICustomers     = "Customers"
	KPIAvgOrderValue = "Avg Order Value"
)

// KPISet is the fixed set of headline metrics for one table. Values are unrounded.
type KPISet struct {
	TotalSales    float64 `json:"total_sales"`
	TotalProfit   float64 `json:"total_profit"`
	Orders        int     `json:"orders"`
	Customers     int     `json:"customers"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// KPI is one named metric. Count marks integer-valued metrics.
type KPI struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Count bool    `json:"count,omitempty"`
}

// Entries returns the five metrics in their fixed display order.
func (k KPISet) Entries() []KPI {
	return []KPI{
		{Name: KPITotalSales, Value: k.TotalSales},
		{Name: KPITotalProfit, Value: k.TotalProfit},
		{Name: KPIOrders, Value: float64(k.Orders), Count: true},
		{Name: KPICustomers, Value: float64(k.Customers), Count: true},
		{Name: KPIAvgOrderValue, Value: k.AvgOrderValue},
	}
}

// Margin returns profit as a percentage of sales, 0 when there are no sales.
func (k KPISet) Margin() float64 {
	if k.TotalSales == 0 {
		return 0
	}
	return 100 * k.TotalProfit / k.TotalSales
}

// KPIs computes totals and distinct counts. An order spanning several lines counts
// once, so AvgOrderValue is sales per distinct order rather than per line. Blank
// order and customer IDs are missing values: their lines add to the totals but not
// to the counts, and a table with no order IDs has an AvgOrderValue of 0.
func KPIs(t *dataset.Table) KPISet {
	var k KPISet
	orders := map[string]struct{}{}
	customers := map[string]struct{}{}
	for _, r := range t.Records {
		k.TotalSales += r.Sales
		k.TotalProfit += r.Profit
		if r.OrderID != "" {
			orders[r.OrderID] = struct{}{}
		}
		if r.CustomerID != "" {
			customers[r.CustomerID] = struct{}{}
		}
	}
	k.Orders = len(orders)
	k.Customers = len(customers)
	if k.Orders > 0 {
		k.AvgOrderValue = k.TotalSales / float64(k.Orders)
	}
	return k
}

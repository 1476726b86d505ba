// Package insights turns aggregates into the rule-based findings and recommendations
// shown under the dashboard charts.
package insights

import (
	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/analytics"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/pkg/apperr"
)

// Summary holds the numbers behind the generated insights. Values are unrounded.
type Summary struct {
	TotalSales    float64 `json:"total_sales"`
	TotalProfit   float64 `json:"total_profit"`
	Margin        float64 `json:"margin_pct"`
	Orders        int     `json:"orders"`
	AvgOrderValue float64 `json:"avg_order_value"`

	BestRegion   string `json:"best_region"`
	WorstRegion  string `json:"worst_region"`
	TopCategory  string `json:"top_category"`
	LossCategory string `json:"loss_category"`

	Growth        float64 `json:"growth_pct"`
	Months        int     `json:"months"`
	PartialWindow bool    `json:"partial_window"`

	TopN     int     `json:"top_n"`
	TopShare float64 `json:"top_share_pct"`
}

// Analyze computes the summary in a fixed order: totals and margin, average order
// value, best and worst region, most and least profitable category, the recent versus
// previous growth window and the top-product revenue share. A table with zero total
// sales is rejected with an insufficient-data error.
func Analyze(t *dataset.Table, p config.Policy) (Summary, error) {
	var s Summary

	k := analytics.KPIs(t)
	if k.TotalSales == 0 {
		return s, apperr.NewInsufficientData("total sales is zero; margin and order value are undefined")
	}
	s.TotalSales = k.TotalSales
	s.TotalProfit = k.TotalProfit
	s.Margin = k.Margin()
	s.Orders = k.Orders
	s.AvgOrderValue = k.AvgOrderValue

	s.BestRegion = argMax(analytics.SalesByRegion(t))
	s.WorstRegion = argMin(analytics.ProfitByRegion(t))
	catProfit := analytics.ProfitByCategory(t)
	s.TopCategory = argMax(catProfit)
	s.LossCategory = argMin(catProfit)

	trend := analytics.SalesTrend(t)
	s.Months = len(trend)
	s.Growth, s.PartialWindow = growth(trend, p.TrendWindowMonths)

	conc, err := analytics.Concentration(t, p.TopProducts)
	if err != nil {
		return s, err
	}
	s.TopN = conc.TopN
	s.TopShare = conc.TopSharePct()
	return s, nil
}

// growth compares the mean of the last window months with the mean of up to window
// months immediately before them. With a short history the previous window is
// whatever remains; an empty or non-positive previous window yields 0. partial is
// true when fewer than two full windows were available.
func growth(trend []analytics.MonthValue, window int) (pct float64, partial bool) {
	if window <= 0 {
		window = config.TrendWindowMonths
	}
	n := len(trend)
	partial = n < 2*window

	recentStart := max(n-window, 0)
	prevStart := max(n-2*window, 0)
	recent := trend[recentStart:]
	previous := trend[prevStart:recentStart]
	if len(recent) == 0 || len(previous) == 0 {
		return 0, partial
	}
	prev := mean(previous)
	if prev <= 0 {
		return 0, partial
	}
	return 100 * (mean(recent) - prev) / prev, partial
}

func mean(vs []analytics.MonthValue) float64 {
	var sum float64
	for _, v := range vs {
		sum += v.Value
	}
	return sum / float64(len(vs))
}

// argMax returns the first key with the largest value. Groups arrive in ascending key
// order, so ties resolve to the alphabetically first key.
func argMax(g []analytics.GroupValue) string {
	best := -1
	for i, v := range g {
		if best < 0 || v.Value > g[best].Value {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return g[best].Key
}

func argMin(g []analytics.GroupValue) string {
	worst := -1
	for i, v := range g {
		if worst < 0 || v.Value < g[worst].Value {
			worst = i
		}
	}
	if worst < 0 {
		return ""
	}
	return g[worst].Key
}

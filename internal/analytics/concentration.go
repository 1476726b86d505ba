package analytics

import (
	"sort"

	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/pkg/apperr"
)

// HHI band thresholds, the usual antitrust cut-offs on fractional shares.
const (
	hhiModerate = 0.15
	hhiHigh     = 0.25
)

// Concentration bands.
const (
	BandUnconcentrated = "unconcentrated"
	BandModerate       = "moderately_concentrated"
	BandHigh           = "highly_concentrated"
)

// GroupShare is one product's fraction of total sales.
type GroupShare struct {
	Name  string  `json:"name"`
	Share float64 `json:"share"`
	Total float64 `json:"total"`
}

// ConcentrationMetrics describes how dependent revenue is on the top products.
// Shares are fractions in [0, 1].
type ConcentrationMetrics struct {
	TopN       int          `json:"top_n"`
	Groups     []GroupShare `json:"groups"`
	TopShare   float64      `json:"top_share"`
	OtherShare float64      `json:"other_share"`
	HHI        float64      `json:"hhi"`
	Band       string       `json:"band"`
	Products   int          `json:"products"`
}

// TopSharePct is TopShare as a percentage.
func (c ConcentrationMetrics) TopSharePct() float64 { return 100 * c.TopShare }

// Concentration computes the top-N product share of sales and the Herfindahl index
// over every product. With fewer than topN products all of them count as the top.
func Concentration(t *dataset.Table, topN int) (ConcentrationMetrics, error) {
	var out ConcentrationMetrics
	out.TopN = topN
	if out.TopN <= 0 {
		out.TopN = config.TopProducts
	}

	groups := SalesByProduct(t)
	var total float64
	for _, g := range groups {
		total += g.Value
	}
	if total == 0 {
		return out, apperr.NewInsufficientData("zero total sales; cannot compute shares")
	}
	out.Products = len(groups)

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	keep := min(out.TopN, len(groups))
	for i := 0; i < keep; i++ {
		sh := groups[i].Value / total
		out.Groups = append(out.Groups, GroupShare{Name: groups[i].Key, Share: sh, Total: groups[i].Value})
		out.TopShare += sh
	}
	out.OtherShare = max(1-out.TopShare, 0)

	for _, g := range groups {
		sh := g.Value / total
		out.HHI += sh * sh
	}
	switch {
	case out.HHI < hhiModerate:
		out.Band = BandUnconcentrated
	case out.HHI < hhiHigh:
		out.Band = BandModerate
	default:
		out.Band = BandHigh
	}
	return out, nil
}

package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/pkg/apperr"
)

// GroupMix is a category's share of sales in the baseline and current months.
type GroupMix struct {
	Name          string  `json:"name"`
	ShareBaseline float64 `json:"share_baseline"`
	ShareCurrent  float64 `json:"share_current"`
	PPChange      float64 `json:"pp_change"`
	Highlight     bool    `json:"highlight"`
}

// MixShift compares category composition between the two most recent months.
type MixShift struct {
	Baseline    time.Time  `json:"baseline"`
	Current     time.Time  `json:"current"`
	ThresholdPP float64    `json:"threshold_pp"`
	Groups      []GroupMix `json:"groups"`
}

// CategoryMixShift computes each category's percentage of monthly sales in the two
// most recent months and the change in percentage points. Moves larger than
// thresholdPP (absolute) are highlighted; thresholdPP <= 0 uses the policy default.
// Groups are ordered by absolute change, largest first, then by name.
func CategoryMixShift(t *dataset.Table, thresholdPP float64) (MixShift, error) {
	var out MixShift
	out.ThresholdPP = thresholdPP
	if out.ThresholdPP <= 0 {
		out.ThresholdPP = config.MixShiftThresholdPP
	}

	months := SalesTrend(t)
	if len(months) < 2 {
		return out, apperr.NewInsufficientData("mix shift needs two months of history, have %d", len(months))
	}
	out.Baseline = months[len(months)-2].Month
	out.Current = months[len(months)-1].Month
	baseTotal, curTotal := months[len(months)-2].Value, months[len(months)-1].Value
	if baseTotal == 0 || curTotal == 0 {
		return out, apperr.NewInsufficientData("zero sales in %s or %s", out.Baseline.Format("2006-01"), out.Current.Format("2006-01"))
	}

	base := map[string]float64{}
	cur := map[string]float64{}
	for _, r := range t.Records {
		switch MonthOf(t, r) {
		case out.Baseline:
			base[r.Category] += r.Sales
		case out.Current:
			cur[r.Category] += r.Sales
		}
	}
	names := map[string]struct{}{}
	for k := range base {
		names[k] = struct{}{}
	}
	for k := range cur {
		names[k] = struct{}{}
	}
	for name := range names {
		b := 100 * base[name] / baseTotal
		c := 100 * cur[name] / curTotal
		pp := c - b
		out.Groups = append(out.Groups, GroupMix{
			Name:          name,
			ShareBaseline: b,
			ShareCurrent:  c,
			PPChange:      pp,
			Highlight:     math.Abs(pp) > out.ThresholdPP,
		})
	}
	sort.Slice(out.Groups, func(i, j int) bool {
		ai, aj := math.Abs(out.Groups[i].PPChange), math.Abs(out.Groups[j].PPChange)
		if ai != aj {
			return ai > aj
		}
		return out.Groups[i].Name < out.Groups[j].Name
	})
	return out, nil
}

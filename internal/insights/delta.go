package insights

import (
	"github.com/vinodismyname/storepulse/internal/analytics"
	"github.com/vinodismyname/storepulse/internal/dataset"
)

// Delta returns the percentage change of measure m between the two most recent
// months present in t. It is 0 with fewer than two months or a zero prior total.
func Delta(t *dataset.Table, m dataset.Measure) float64 {
	months := analytics.MonthlyTotals(t, m)
	if len(months) < 2 {
		return 0
	}
	cur := months[len(months)-1].Value
	prev := months[len(months)-2].Value
	if prev == 0 {
		return 0
	}
	return 100 * (cur - prev) / prev
}

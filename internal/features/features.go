// Package features derives calendar fields from the order date.
package features

import "github.com/vinodismyname/storepulse/internal/dataset"

// DeriveTimeFeatures returns a copy of t where every record carries its month bucket
// (first day of the order month) and calendar year. t itself is left untouched so a
// caller holding the pre-feature table keeps seeing it unchanged.
func DeriveTimeFeatures(t *dataset.Table) *dataset.Table {
	out := t.Clone()
	for i := range out.Records {
		r := &out.Records[i]
		r.Month = dataset.MonthBucket(r.OrderDate)
		r.Year = r.OrderDate.Year()
	}
	out.HasTimeFeatures = true
	return out
}

// Ensure returns t when it already has time features, otherwise a derived copy.
func Ensure(t *dataset.Table) *dataset.Table {
	if t.HasTimeFeatures {
		return t
	}
	return DeriveTimeFeatures(t)
}

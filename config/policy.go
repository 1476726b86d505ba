package config

// Business policy constants used by the insight and aggregation engines.
// They are fixed thresholds, not computed values.
const (
	// LowMarginPct flags a low overall profit margin (percent).
	LowMarginPct = 15.0
	// ConcentrationPct flags revenue concentration in the top products (percent).
	ConcentrationPct = 50.0
	// TrendWindowMonths is the size of the recent and previous growth windows.
	TrendWindowMonths = 6
	// TopProducts is the N used for top/bottom rankings and concentration share.
	TopProducts = 10
	// ForecastPeriods is the default number of months projected by the forecast.
	ForecastPeriods = 6
	// MixShiftThresholdPP highlights category share moves above this many percentage points.
	MixShiftThresholdPP = 5.0
)

// Policy groups the thresholds so callers and tests can override them together.
type Policy struct {
	LowMarginPct        float64 `json:"low_margin_pct" validate:"gte=0,lte=100"`
	ConcentrationPct    float64 `json:"concentration_pct" validate:"gte=0,lte=100"`
	TrendWindowMonths   int     `json:"trend_window_months" validate:"min=1"`
	TopProducts         int     `json:"top_products" validate:"min=1"`
	ForecastPeriods     int     `json:"forecast_periods" validate:"min=1"`
	MixShiftThresholdPP float64 `json:"mix_shift_threshold_pp" validate:"gte=0"`
}

// DefaultPolicy returns the standard business policy.
func DefaultPolicy() Policy {
	return Policy{
		LowMarginPct:        LowMarginPct,
		ConcentrationPct:    ConcentrationPct,
		TrendWindowMonths:   TrendWindowMonths,
		TopProducts:         TopProducts,
		ForecastPeriods:     ForecastPeriods,
		MixShiftThresholdPP: MixShiftThresholdPP,
	}
}

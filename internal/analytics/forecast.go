package analytics

import (
	"math"
	"time"

	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/pkg/apperr"
	"gonum.org/v1/gonum/optimize"
)

// ForecastPoint is a projected monthly sales total.
type ForecastPoint struct {
	Month    time.Time `json:"month"`
	Forecast float64   `json:"forecast"`
}

// holt is an additive-trend exponential smoothing state after fitting.
type holt struct {
	Alpha, Beta float64
	Level       float64
	Trend       float64
	SSE         float64
}

// Fallback smoothing parameters when the optimizer cannot improve on them.
const (
	defaultAlpha = 0.5
	defaultBeta  = 0.1
)

// Forecast projects monthly sales forward with Holt's additive-trend smoothing.
// Smoothing parameters minimise the one-step-ahead squared error. The result is a
// best-effort projection; it needs at least two months of history. periods <= 0
// uses config.ForecastPeriods.
func Forecast(t *dataset.Table, periods int) ([]ForecastPoint, error) {
	if periods <= 0 {
		periods = config.ForecastPeriods
	}
	series := SalesTrend(t)
	if len(series) < 2 {
		return nil, apperr.NewInsufficientData("forecast needs at least 2 months of history, have %d", len(series))
	}
	ys := make([]float64, len(series))
	for i, p := range series {
		ys[i] = p.Value
	}

	m := fitHolt(ys)
	last := series[len(series)-1].Month
	out := make([]ForecastPoint, periods)
	for h := 1; h <= periods; h++ {
		out[h-1] = ForecastPoint{
			Month:    last.AddDate(0, h, 0),
			Forecast: m.Level + float64(h)*m.Trend,
		}
	}
	return out, nil
}

// smooth runs the recursions over ys and returns the final state.
func smooth(ys []float64, alpha, beta float64) holt {
	m := holt{Alpha: alpha, Beta: beta, Level: ys[0], Trend: ys[1] - ys[0]}
	for _, y := range ys[1:] {
		pred := m.Level + m.Trend
		e := y - pred
		m.SSE += e * e
		level := alpha*y + (1-alpha)*pred
		m.Trend = beta*(level-m.Level) + (1-beta)*m.Trend
		m.Level = level
	}
	return m
}

// logistic keeps the optimizer's unconstrained variables inside (0, 1).
func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func fitHolt(ys []float64) holt {
	best := smooth(ys, defaultAlpha, defaultBeta)
	if len(ys) < 3 {
		return best
	}
	p := optimize.Problem{
		Func: func(x []float64) float64 {
			return smooth(ys, logistic(x[0]), logistic(x[1])).SSE
		},
	}
	settings := &optimize.Settings{MajorIterations: 500}
	// A run stopped by the iteration cap still reports its best location.
	res, _ := optimize.Minimize(p, []float64{0, -2}, settings, &optimize.NelderMead{})
	if res == nil || len(res.X) != 2 {
		return best
	}
	fitted := smooth(ys, logistic(res.X[0]), logistic(res.X[1]))
	if math.IsNaN(fitted.SSE) || fitted.SSE > best.SSE {
		return best
	}
	return fitted
}

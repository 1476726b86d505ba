package analytics

import (
	"math"

	"github.com/vinodismyname/storepulse/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Correlation is a symmetric Pearson matrix indexed like Measures.
type Correlation struct {
	Measures []dataset.Measure `json:"measures"`
	Matrix   [][]float64       `json:"matrix"`
}

// At returns the coefficient for two measures, 0 if either is not in the matrix.
func (c Correlation) At(a, b dataset.Measure) float64 {
	i, j := -1, -1
	for k, m := range c.Measures {
		if m == a {
			i = k
		}
		if m == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0
	}
	return c.Matrix[i][j]
}

// CorrelationMatrix computes pairwise Pearson correlation across sales, profit,
// quantity and discount. Each pair uses only rows where both values are present.
// Coefficients that are undefined (fewer than two pairs or a constant series) are 0.
func CorrelationMatrix(t *dataset.Table) Correlation {
	ms := dataset.Measures
	out := Correlation{Measures: ms, Matrix: make([][]float64, len(ms))}
	for i := range ms {
		out.Matrix[i] = make([]float64, len(ms))
		out.Matrix[i][i] = 1
	}
	for i := 0; i < len(ms); i++ {
		for j := i + 1; j < len(ms); j++ {
			r := pearson(t, ms[i], ms[j])
			out.Matrix[i][j] = r
			out.Matrix[j][i] = r
		}
	}
	return out
}

func pearson(t *dataset.Table, a, b dataset.Measure) float64 {
	xs := make([]float64, 0, len(t.Records))
	ys := make([]float64, 0, len(t.Records))
	for _, r := range t.Records {
		x, okx := a.Value(r)
		y, oky := b.Value(r)
		if !okx || !oky {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return 0
	}
	c := stat.Correlation(xs, ys, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}

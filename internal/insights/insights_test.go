package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/analytics"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/internal/features"
	"github.com/vinodismyname/storepulse/pkg/apperr"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(id string, date time.Time, region, category, prod string, sales, profit float64) dataset.Record {
	return dataset.Record{
		OrderID: id, CustomerID: "C" + id, OrderDate: date, ProductName: prod,
		Category: category, Region: region, Segment: "Consumer", State: "Texas",
		Sales: sales, Profit: profit, Quantity: 1,
	}
}

func scenario() *dataset.Table {
	return features.DeriveTimeFeatures(&dataset.Table{Records: []dataset.Record{
		rec("1", day(2017, time.January, 3), "West", "Technology", "Phone", 100, 20),
		rec("2", day(2017, time.January, 20), "East", "Technology", "Tablet", 50, -10),
		rec("3", day(2017, time.February, 7), "West", "Technology", "Laptop", 200, 40),
	}})
}

// monthly builds one record per month starting January 2016.
func monthly(values ...float64) *dataset.Table {
	t := &dataset.Table{}
	for i, v := range values {
		d := day(2016, time.January, 15).AddDate(0, i, 0)
		t.Records = append(t.Records, rec("M", d, "West", "Furniture", "Desk", v, v/4))
	}
	return features.DeriveTimeFeatures(t)
}

func TestAnalyze_Scenario(t *testing.T) {
	s, err := Analyze(scenario(), config.DefaultPolicy())
	require.NoError(t, err)
	require.InDelta(t, 350.0, s.TotalSales, 1e-9)
	require.InDelta(t, 50.0, s.TotalProfit, 1e-9)
	require.InDelta(t, 14.2857, s.Margin, 1e-3)
	require.Equal(t, 3, s.Orders)
	require.Equal(t, "West", s.BestRegion)
	require.Equal(t, "East", s.WorstRegion)
	require.Equal(t, "Technology", s.TopCategory)
	require.Equal(t, "Technology", s.LossCategory)
	require.Equal(t, 2, s.Months)
	require.True(t, s.PartialWindow)
	require.Zero(t, s.Growth)
	// fewer than 10 products: every product counts once
	require.InDelta(t, 100.0, s.TopShare, 1e-9)
}

func TestGenerate_Scenario(t *testing.T) {
	out, err := Generate(scenario(), config.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, out, 8)
	for _, in := range out[:6] {
		require.Equal(t, Finding, in.Kind)
	}
	require.Equal(t, "Total revenue is `$350` with a profit of `$50` (`14.3%` margin).", out[0].Text)
	require.Equal(t, "Average order value is `116.67` across `3` orders.", out[1].Text)
	require.Contains(t, out[2].Text, "`West` region sells the most")
	require.Contains(t, out[2].Text, "`East` region has the weakest profit")
	require.Contains(t, out[4].Text, "(based on 2 months of history)")
	require.Contains(t, out[5].Text, "`100.0%`")

	require.Equal(t, Recommendation, out[6].Kind)
	require.Contains(t, out[6].Text, "profit margin is low")
	require.Contains(t, out[7].Text, "concentration is high")

	again, err := Generate(scenario(), config.DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, out, again)
	require.Equal(t, out[0].Text, Texts(out)[0])
}

func TestGenerate_RecommendationOrder(t *testing.T) {
	// Twelve months, declining in the recent half, thin margin, one product.
	vals := []float64{200, 200, 200, 200, 200, 200, 100, 100, 100, 100, 100, 100}
	tbl := monthly(vals...)
	for i := range tbl.Records {
		tbl.Records[i].Profit = 1
	}
	out, err := Generate(tbl, config.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, out, 9)
	require.Contains(t, out[4].Text, "`-50.0%`")
	require.NotContains(t, out[4].Text, "based on")
	require.Contains(t, out[6].Text, "declining")
	require.Contains(t, out[7].Text, "margin is low")
	require.Contains(t, out[8].Text, "concentration")
}

func TestGenerate_NoRecommendations(t *testing.T) {
	tbl := &dataset.Table{}
	for i := 0; i < 20; i++ {
		d := day(2017, time.March, 1+i)
		tbl.Records = append(tbl.Records, rec("O", d, "West", "Furniture", "P"+string(rune('a'+i)), 100, 30))
	}
	out, err := Generate(tbl, config.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, out, 6)
	require.Contains(t, out[5].Text, "`50.0%`")
}

func TestGenerate_PolicyOverride(t *testing.T) {
	p := config.DefaultPolicy()
	p.LowMarginPct = 10
	p.ConcentrationPct = 100
	out, err := Generate(scenario(), p)
	require.NoError(t, err)
	require.Len(t, out, 6)
}

func TestAnalyze_ZeroSales(t *testing.T) {
	tbl := &dataset.Table{Records: []dataset.Record{rec("1", day(2017, time.January, 3), "West", "Technology", "Phone", 0, -4)}}
	_, err := Analyze(tbl, config.DefaultPolicy())
	require.True(t, apperr.IsInsufficientData(err))

	_, err = Generate(&dataset.Table{}, config.DefaultPolicy())
	require.True(t, apperr.IsInsufficientData(err))
}

func TestGrowthWindows(t *testing.T) {
	series := func(vals ...float64) []analytics.MonthValue {
		return analytics.SalesTrend(monthly(vals...))
	}

	g, partial := growth(series(100, 100, 100, 100, 100, 100, 110, 110, 110, 110, 110, 110), 6)
	require.InDelta(t, 10.0, g, 1e-9)
	require.False(t, partial)

	// older months beyond the two windows are ignored
	g, _ = growth(series(999, 999, 100, 100, 100, 100, 100, 100, 110, 110, 110, 110, 110, 110), 6)
	require.InDelta(t, 10.0, g, 1e-9)

	// eight months: previous window is the first two
	g, partial = growth(series(50, 150, 200, 200, 200, 200, 200, 200), 6)
	require.InDelta(t, 100.0, g, 1e-9)
	require.True(t, partial)

	g, _ = growth(series(100, 200, 300), 6)
	require.Zero(t, g)

	g, _ = growth(series(0, 0, 10, 10), 2)
	require.Zero(t, g)

	g, _ = growth(nil, 6)
	require.Zero(t, g)
}

func TestDelta(t *testing.T) {
	tbl := scenario()
	require.InDelta(t, 33.333, Delta(tbl, dataset.Sales), 1e-3)
	require.InDelta(t, 300.0, Delta(tbl, dataset.Profit), 1e-9)

	// one month only
	one := &dataset.Table{Records: tbl.Records[:2]}
	require.Zero(t, Delta(one, dataset.Sales))

	// prior month sums to zero
	zero := features.DeriveTimeFeatures(&dataset.Table{Records: []dataset.Record{
		rec("1", day(2017, time.January, 3), "West", "Technology", "Phone", 10, 0),
		rec("2", day(2017, time.February, 3), "West", "Technology", "Phone", 10, 5),
	}})
	require.Zero(t, Delta(zero, dataset.Profit))
	require.Zero(t, Delta(&dataset.Table{}, dataset.Sales))

	// non-adjacent months still compare the latest two present
	gap := monthly(100, 0, 0, 0)
	gap.Records = append(gap.Records[:1], gap.Records[3:]...)
	gap.Records[1].Sales = 150
	require.InDelta(t, 50.0, Delta(gap, dataset.Sales), 1e-9)
}

func TestRender_GroupsThousands(t *testing.T) {
	s := Summary{TotalSales: 2297200.86, TotalProfit: 286397.02, Margin: 12.47, TopN: 10}
	out := Render(s, config.DefaultPolicy())
	require.True(t, strings.HasPrefix(out[0].Text, "Total revenue is `$2,297,201` with a profit of `$286,397`"))
}

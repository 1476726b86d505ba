package insights

import (
	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind separates factual statements from conditional recommendations.
type Kind string

const (
	Finding        Kind = "finding"
	Recommendation Kind = "recommendation"
)

// Insight is one markdown-flavoured line for the display layer.
type Insight struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// printer groups thousands the way the dashboard shows currency.
var printer = message.NewPrinter(language.English)

// Generate analyzes t and renders six findings followed by any recommendations, in
// the order declining sales, low margin, revenue concentration.
func Generate(t *dataset.Table, p config.Policy) ([]Insight, error) {
	s, err := Analyze(t, p)
	if err != nil {
		return nil, err
	}
	return Render(s, p), nil
}

// Render formats a summary. It is deterministic for a given summary and policy.
func Render(s Summary, p config.Policy) []Insight {
	out := []Insight{
		{Finding, printer.Sprintf("Total revenue is `$%.0f` with a profit of `$%.0f` (`%.1f%%` margin).", s.TotalSales, s.TotalProfit, s.Margin)},
		{Finding, printer.Sprintf("Average order value is `%.2f` across `%d` orders.", s.AvgOrderValue, s.Orders)},
		{Finding, printer.Sprintf("The `%s` region sells the most, while the `%s` region has the weakest profit and needs a cost review.", s.BestRegion, s.WorstRegion)},
		{Finding, printer.Sprintf("`%s` is the most profitable category and `%s` shows the highest loss risk.", s.TopCategory, s.LossCategory)},
		{Finding, growthText(s, p)},
		{Finding, printer.Sprintf("Top %d products generate `%.1f%%` of total revenue (concentration risk indicator).", s.TopN, s.TopShare)},
	}

	if s.Growth < 0 {
		out = append(out, Insight{Recommendation, "**Note**: Sales are declining recently. Marketing and pricing strategy review is recommended."})
	}
	if s.Margin < p.LowMarginPct {
		out = append(out, Insight{Recommendation, "**Note**: Overall profit margin is low. Cost optimization is recommended."})
	}
	if s.TopShare > p.ConcentrationPct {
		out = append(out, Insight{Recommendation, "**Note**: Revenue concentration is high. Product portfolio diversification is advised."})
	}
	return out
}

func growthText(s Summary, p config.Policy) string {
	window := p.TrendWindowMonths
	if window <= 0 {
		window = config.TrendWindowMonths
	}
	text := printer.Sprintf("Sales growth over the last %d months is `%.1f%%`.", window, s.Growth)
	if s.PartialWindow {
		text += printer.Sprintf(" (based on %d months of history)", s.Months)
	}
	return text
}

// Texts returns the insight strings alone, in order.
func Texts(in []Insight) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = v.Text
	}
	return out
}

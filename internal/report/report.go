// Package report renders pipeline results for people: a markdown summary for the
// terminal and an XLSX workbook export.
package report

import (
	"strings"

	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/analytics"
	"github.com/vinodismyname/storepulse/internal/cleaning"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/internal/insights"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Title heads both the markdown and the workbook report.
const Title = "Superstore Sales Report"

// Document is everything an export needs. Panels that could not be computed are
// left empty and explained in Notes.
type Document struct {
	Title        string
	KPIs         analytics.KPISet
	SalesDelta   float64
	Insights     []insights.Insight
	Health       cleaning.Report
	Trend        []analytics.MonthValue
	Forecast     []analytics.ForecastPoint
	TopProducts  []analytics.GroupValue
	LossProducts []analytics.GroupValue
	Geo          []analytics.StateSales
	Table        *dataset.Table
	Notes        []string
}

// Build computes every panel for t. A panel failing with insufficient data adds a
// note instead of failing the document.
func Build(t *dataset.Table, health cleaning.Report, p config.Policy) Document {
	doc := Document{
		Title:        Title,
		KPIs:         analytics.KPIs(t),
		SalesDelta:   insights.Delta(t, dataset.Sales),
		Health:       health,
		Trend:        analytics.SalesTrend(t),
		TopProducts:  analytics.TopProducts(t, p.TopProducts),
		LossProducts: analytics.LossProducts(t, p.TopProducts),
		Geo:          analytics.GeoSales(t),
		Table:        t,
	}
	ins, err := insights.Generate(t, p)
	if err != nil {
		doc.Notes = append(doc.Notes, "Insights unavailable: "+err.Error())
	} else {
		doc.Insights = ins
	}
	fc, err := analytics.Forecast(t, p.ForecastPeriods)
	if err != nil {
		doc.Notes = append(doc.Notes, "Forecast unavailable: "+err.Error())
	} else {
		doc.Forecast = fc
	}
	return doc
}

var printer = message.NewPrinter(language.English)

// FormatKPI renders a metric for display. Counts are integers; money has two decimals.
func FormatKPI(k analytics.KPI) string {
	if k.Count {
		return printer.Sprintf("%d", int64(k.Value))
	}
	return printer.Sprintf("%.2f", k.Value)
}

// FormatDelta renders a percentage change with an explicit sign.
func FormatDelta(pct float64) string {
	return printer.Sprintf("%+.1f%%", pct)
}

// Markdown renders the title, one line per KPI in Entries order, the insights and
// the data-health lines. Total Sales carries its month-over-month change.
func Markdown(doc Document) string {
	var b strings.Builder
	b.WriteString("# " + Title + "\n\n## Key metrics\n")
	for _, e := range doc.KPIs.Entries() {
		b.WriteString("- " + e.Name + ": " + FormatKPI(e))
		if e.Name == analytics.KPITotalSales {
			b.WriteString(" (" + FormatDelta(doc.SalesDelta) + " vs previous month)")
		}
		b.WriteString("\n")
	}
	if len(doc.Insights) > 0 {
		b.WriteString("\n## Insights\n")
		for _, in := range doc.Insights {
			b.WriteString("- " + in.Text + "\n")
		}
	}
	b.WriteString("\n## Data health\n")
	for _, l := range doc.Health.Lines() {
		b.WriteString("- " + l + "\n")
	}
	return b.String()
}

package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/analytics"
	"github.com/vinodismyname/storepulse/internal/cleaning"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/internal/insights"
	"github.com/vinodismyname/storepulse/internal/report"
	"github.com/vinodismyname/storepulse/internal/runtime"
	"github.com/vinodismyname/storepulse/internal/security"
	"github.com/vinodismyname/storepulse/internal/store"
	"github.com/vinodismyname/storepulse/pkg/apperr"
	"github.com/vinodismyname/storepulse/pkg/pagination"
	"github.com/vinodismyname/storepulse/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// DatasetInput selects the dataset a tool reads. Path defaults to the file the server started with.
type DatasetInput struct {
	Path string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
}

// TopNInput bounds ranking tools.
type TopNInput struct {
	Path string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	N    int    `json:"n,omitempty" validate:"omitempty,min=1,max=100" jsonschema_description:"Number of products to return (default 10)"`
}

// BreakdownInput selects a single-dimension total.
type BreakdownInput struct {
	Path    string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	By      string `json:"by" validate:"required,oneof=region category" jsonschema_description:"Grouping dimension: region or category"`
	Measure string `json:"measure,omitempty" validate:"omitempty,oneof=sales profit" jsonschema_description:"Summed measure: sales (default) or profit"`
}

// CrossTabInput selects the primary dimension of a category cross-tab.
type CrossTabInput struct {
	Path string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	By   string `json:"by" validate:"required,oneof=region segment" jsonschema_description:"Primary dimension: region or segment"`
}

// ForecastInput sets the forecast horizon.
type ForecastInput struct {
	Path    string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	Periods int    `json:"periods,omitempty" validate:"omitempty,min=1,max=24" jsonschema_description:"Months to forecast (default 6)"`
}

// ConcentrationInput sets how many leading products count as the head.
type ConcentrationInput struct {
	Path string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	TopN int    `json:"top_n,omitempty" validate:"omitempty,min=1,max=100" jsonschema_description:"Leading products in the head share (default 10)"`
}

// MixShiftInput sets the highlight threshold for category mix changes.
type MixShiftInput struct {
	Path        string  `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	ThresholdPP float64 `json:"threshold_pp,omitempty" validate:"omitempty,gt=0,lte=100" jsonschema_description:"Share change in percentage points that is highlighted (default 5)"`
}

// DeltaInput selects the measure whose month-over-month change is reported.
type DeltaInput struct {
	Path    string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	Measure string `json:"measure,omitempty" validate:"measure" jsonschema_description:"sales (default), profit, quantity or discount"`
}

// QuantityProfitInput pages through per-line quantity and profit points.
type QuantityProfitInput struct {
	Path     string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	Cursor   string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque cursor from a previous page"`
	PageSize int    `json:"page_size,omitempty" validate:"omitempty,min=1" jsonschema_description:"Rows per page (bounded by server limits)"`
}

// ExportInput names the workbook to write.
type ExportInput struct {
	Path   string `json:"path,omitempty" jsonschema_description:"Orders file to analyze; defaults to the server's -file"`
	Output string `json:"output" validate:"required" jsonschema_description:"Destination .xlsx path inside an allowed directory"`
}

// PageMeta captures paging metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// KPIsOutput documents the kpis response.
type KPIsOutput struct {
	DatasetID string          `json:"dataset_id"`
	Version   int64           `json:"version"`
	KPIs      []analytics.KPI `json:"kpis"`
	MarginPct float64         `json:"margin_pct"`
}

// TrendOutput documents monthly series responses.
type TrendOutput struct {
	DatasetID string                 `json:"dataset_id"`
	Points    []analytics.MonthValue `json:"points"`
}

// InsightsOutput documents the insights response.
type InsightsOutput struct {
	DatasetID string             `json:"dataset_id"`
	Summary   insights.Summary   `json:"summary"`
	Insights  []insights.Insight `json:"insights"`
}

// GroupsOutput documents grouped totals and rankings.
type GroupsOutput struct {
	DatasetID string                 `json:"dataset_id"`
	Groups    []analytics.GroupValue `json:"groups"`
}

// GeoOutput documents the geo_sales response.
type GeoOutput struct {
	DatasetID string                 `json:"dataset_id"`
	States    []analytics.StateSales `json:"states"`
}

// SegmentsOutput documents the segment_performance response.
type SegmentsOutput struct {
	DatasetID string                 `json:"dataset_id"`
	Segments  []analytics.SegmentRow `json:"segments"`
}

// CrossTabOutput documents the cross_tab response.
type CrossTabOutput struct {
	DatasetID string                  `json:"dataset_id"`
	By        string                  `json:"by"`
	Rows      []analytics.CrossTabRow `json:"rows"`
}

// ForecastOutput documents the forecast response.
type ForecastOutput struct {
	DatasetID string                    `json:"dataset_id"`
	Points    []analytics.ForecastPoint `json:"points"`
}

// DeltaOutput documents the delta response.
type DeltaOutput struct {
	DatasetID string  `json:"dataset_id"`
	Measure   string  `json:"measure"`
	DeltaPct  float64 `json:"delta_pct"`
}

// QuantityProfitOutput documents one page of quantity/profit points.
type QuantityProfitOutput struct {
	DatasetID string                     `json:"dataset_id"`
	Rows      []analytics.QuantityProfit `json:"rows"`
	Meta      PageMeta                   `json:"meta"`
}

// HealthOutput documents the data_health response.
type HealthOutput struct {
	DatasetID string          `json:"dataset_id"`
	Report    cleaning.Report `json:"report"`
	Lines     []string        `json:"lines"`
}

// ExportOutput documents the export_report response.
type ExportOutput struct {
	Output string   `json:"output"`
	Sheets []string `json:"sheets"`
	Notes  []string `json:"notes,omitempty"`
}

// quantityProfitTool names the cursor scope of quantity_profit pages.
const quantityProfitTool = "quantity_profit"

// Handlers implements the analysis tools against a dataset store.
type Handlers struct {
	Store       *store.Manager
	Limits      runtime.Limits
	Policy      config.Policy
	DefaultPath string
	// Exports validates export destinations; nil disables export_report.
	Exports *security.Manager
	// Registry sizes text content; nil leaves text untrimmed.
	Registry   *Registry
	TextTokens int
}

// withDataset resolves path, loads or reuses the dataset and runs fn on it.
func (h *Handlers) withDataset(ctx context.Context, tool, path string, fn func(t *dataset.Table, id string, ver int64) (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	return h.withHealth(ctx, tool, path, func(t *dataset.Table, _ cleaning.Report, id string, ver int64) (*mcp.CallToolResult, error) {
		return fn(t, id, ver)
	})
}

// withHealth is withDataset with the cleaning report of the same load. fn runs
// under the handle's read lock and must not call back into the store.
func (h *Handlers) withHealth(ctx context.Context, tool, path string, fn func(t *dataset.Table, rep cleaning.Report, id string, ver int64) (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		path = h.DefaultPath
	}
	if strings.TrimSpace(path) == "" {
		return apperr.New(apperr.Validation, "path is required"), nil
	}
	id, _, err := h.Store.GetOrOpenByPath(ctx, path)
	if err != nil {
		return h.fail(ctx, tool, err), nil
	}
	var res *mcp.CallToolResult
	err = h.Store.WithRead(id, func(t *dataset.Table, rep cleaning.Report, ver int64) error {
		var ferr error
		res, ferr = fn(t, rep, id, ver)
		return ferr
	})
	if err != nil {
		return h.fail(ctx, tool, err), nil
	}
	return res, nil
}

// fail maps an error to a tool-level result and logs it.
func (h *Handlers) fail(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	zerolog.Ctx(ctx).Warn().Err(err).Str("tool", tool).Msg("tool call failed")
	switch {
	case errors.Is(err, security.ErrNotAllowed):
		return apperr.New(apperr.PermissionDenied, err.Error())
	case errors.Is(err, security.ErrUnsupportedExtension):
		return apperr.New(apperr.Validation, err.Error())
	case errors.Is(err, security.ErrNotFound):
		return apperr.New(apperr.DataFormat, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.New(apperr.BusyResource, "open dataset limit reached")
	}
	return apperr.Result(err, apperr.AnalysisFailed)
}

// result builds a structured result whose text content is summary plus lines,
// trimmed to the token budget.
func (h *Handlers) result(out any, summary string, lines ...string) *mcp.CallToolResult {
	text := summary
	if len(lines) > 0 {
		text += "\n" + strings.Join(lines, "\n")
	}
	if h.Registry != nil {
		text = h.Registry.TrimToBudget(text, h.TextTokens)
	}
	res := mcp.NewToolResultStructured(out, summary)
	res.Content = []mcp.Content{mcp.NewTextContent(text)}
	return res
}

func invalid(in any) *mcp.CallToolResult {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcp.NewToolResultError(msg)
	}
	return nil
}

func money(v float64) string { return report.FormatKPI(analytics.KPI{Value: v}) }

func groupLines(gs []analytics.GroupValue) []string {
	lines := make([]string, len(gs))
	for i, g := range gs {
		lines[i] = fmt.Sprintf("- %s: %s", g.Key, money(g.Value))
	}
	return lines
}

// KPIs returns the headline metrics.
func (h *Handlers) KPIs(ctx context.Context, _ mcp.CallToolRequest, in DatasetInput) (*mcp.CallToolResult, error) {
	return h.withDataset(ctx, "kpis", in.Path, func(t *dataset.Table, id string, ver int64) (*mcp.CallToolResult, error) {
		k := analytics.KPIs(t)
		entries := k.Entries()
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = fmt.Sprintf("- %s: %s", e.Name, report.FormatKPI(e))
		}
		out := KPIsOutput{DatasetID: id, Version: ver, KPIs: entries, MarginPct: k.Margin()}
		return h.result(out, fmt.Sprintf("%d rows, %d orders", t.Len(), k.Orders), lines...), nil
	})
}

// SalesTrend returns monthly sales totals in ascending month order.
func (h *Handlers) SalesTrend(ctx context.Context, _ mcp.CallToolRequest, in DatasetInput) (*mcp.CallToolResult, error) {
	return h.withDataset(ctx, "sales_trend", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		pts := analytics.SalesTrend(t)
		lines := make([]string, len(pts))
		for i, p := range pts {
			lines[i] = fmt.Sprintf("- %s: %s", p.Month.Format("2006-01"), money(p.Value))
		}
		return h.result(TrendOutput{DatasetID: id, Points: pts}, fmt.Sprintf("%d months", len(pts)), lines...), nil
	})
}

// Insights returns rule-based findings followed by recommendations.
func (h *Handlers) Insights(ctx context.Context, _ mcp.CallToolRequest, in DatasetInput) (*mcp.CallToolResult, error) {
	return h.withDataset(ctx, "insights", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		s, err := insights.Analyze(t, h.Policy)
		if err != nil {
			return nil, err
		}
		ins := insights.Render(s, h.Policy)
		out := InsightsOutput{DatasetID: id, Summary: s, Insights: ins}
		return h.result(out, fmt.Sprintf("%d insights", len(ins)), insights.Texts(ins)...), nil
	})
}

// TopProducts ranks products by total sales.
func (h *Handlers) TopProducts(ctx context.Context, _ mcp.CallToolRequest, in TopNInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	return h.withDataset(ctx, "top_products", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		gs := analytics.TopProducts(t, h.topN(in.N))
		return h.result(GroupsOutput{DatasetID: id, Groups: gs}, fmt.Sprintf("top %d products by sales", len(gs)), groupLines(gs)...), nil
	})
}

// LossProducts ranks products by most negative total profit.
func (h *Handlers) LossProducts(ctx context.Context, _ mcp.CallToolRequest, in TopNInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	return h.withDataset(ctx, "loss_products", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		gs := analytics.LossProducts(t, h.topN(in.N))
		return h.result(GroupsOutput{DatasetID: id, Groups: gs}, fmt.Sprintf("%d products by lowest profit", len(gs)), groupLines(gs)...), nil
	})
}

func (h *Handlers) topN(n int) int {
	if n > 0 {
		return n
	}
	return h.Policy.TopProducts
}

// Breakdown sums sales or profit by region or category.
func (h *Handlers) Breakdown(ctx context.Context, _ mcp.CallToolRequest, in BreakdownInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	return h.withDataset(ctx, "breakdown", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		profit := in.Measure == "profit"
		var gs []analytics.GroupValue
		switch {
		case in.By == "region" && profit:
			gs = analytics.ProfitByRegion(t)
		case in.By == "region":
			gs = analytics.SalesByRegion(t)
		case profit:
			gs = analytics.ProfitByCategory(t)
		default:
			gs = analytics.SalesByCategory(t)
		}
		measure := "sales"
		if profit {
			measure = "profit"
		}
		return h.result(GroupsOutput{DatasetID: id, Groups: gs}, fmt.Sprintf("%s by %s", measure, in.By), groupLines(gs)...), nil
	})
}

// GeoSales returns sales per state with postal codes for choropleths.
func (h *Handlers) GeoSales(ctx context.Context, _ mcp.CallToolRequest, in DatasetInput) (*mcp.CallToolResult, error) {
	return h.withDataset(ctx, "geo_sales", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		states := analytics.GeoSales(t)
		lines := make([]string, len(states))
		for i, s := range states {
			lines[i] = fmt.Sprintf("- %s (%s): %s", s.State, s.Code, money(s.Sales))
		}
		return h.result(GeoOutput{DatasetID: id, States: states}, fmt.Sprintf("%d states", len(states)), lines...), nil
	})
}

// SegmentPerformance returns sales and profit per customer segment.
func (h *Handlers) SegmentPerformance(ctx context.Context, _ mcp.CallToolRequest, in DatasetInput) (*mcp.CallToolResult, error) {
	return h.withDataset(ctx, "segment_performance", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		rows := analytics.SegmentPerformance(t)
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = fmt.Sprintf("- %s: sales %s, profit %s", r.Segment, money(r.Sales), money(r.Profit))
		}
		return h.result(SegmentsOutput{DatasetID: id, Segments: rows}, fmt.Sprintf("%d segments", len(rows)), lines...), nil
	})
}

// CrossTab returns sales by region or segment and category.
func (h *Handlers) CrossTab(ctx context.Context, _ mcp.CallToolRequest, in CrossTabInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	return h.withDataset(ctx, "cross_tab", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		rows := analytics.SalesByRegionCategory(t)
		if in.By == "segment" {
			rows = analytics.SalesBySegmentCategory(t)
		}
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = fmt.Sprintf("- %s / %s: %s", r.Primary, r.Category, money(r.Sales))
		}
		out := CrossTabOutput{DatasetID: id, By: in.By, Rows: rows}
		return h.result(out, fmt.Sprintf("sales by %s and category", in.By), lines...), nil
	})
}

// Correlation returns the Pearson matrix over the numeric measures.
func (h *Handlers) Correlation(ctx context.Context, _ mcp.CallToolRequest, in DatasetInput) (*mcp.CallToolResult, error) {
	return h.withDataset(ctx, "correlation", in.Path, func(t *dataset.Table, _ string, _ int64) (*mcp.CallToolResult, error) {
		c := analytics.CorrelationMatrix(t)
		var lines []string
		for i, a := range c.Measures {
			for _, b := range c.Measures[i+1:] {
				lines = append(lines, fmt.Sprintf("- %s ~ %s: %.2f", a.Title(), b.Title(), c.At(a, b)))
			}
		}
		return h.result(c, fmt.Sprintf("%dx%d correlation matrix", len(c.Measures), len(c.Measures)), lines...), nil
	})
}

// Forecast projects monthly sales with Holt's linear trend model.
func (h *Handlers) Forecast(ctx context.Context, _ mcp.CallToolRequest, in ForecastInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	periods := in.Periods
	if periods <= 0 {
		periods = h.Policy.ForecastPeriods
	}
	return h.withDataset(ctx, "forecast", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		pts, err := analytics.Forecast(t, periods)
		if err != nil {
			return nil, err
		}
		lines := make([]string, len(pts))
		for i, p := range pts {
			lines[i] = fmt.Sprintf("- %s: %s", p.Month.Format("2006-01"), money(p.Forecast))
		}
		return h.result(ForecastOutput{DatasetID: id, Points: pts}, fmt.Sprintf("%d-month forecast", len(pts)), lines...), nil
	})
}

// Concentration reports how much revenue the leading products hold.
func (h *Handlers) Concentration(ctx context.Context, _ mcp.CallToolRequest, in ConcentrationInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	return h.withDataset(ctx, "concentration", in.Path, func(t *dataset.Table, _ string, _ int64) (*mcp.CallToolResult, error) {
		c, err := analytics.Concentration(t, h.topN(in.TopN))
		if err != nil {
			return nil, err
		}
		summary := fmt.Sprintf("top %d of %d products hold %.1f%% of sales (HHI %.3f, %s)",
			c.TopN, c.Products, c.TopSharePct(), c.HHI, c.Band)
		return h.result(c, summary), nil
	})
}

// MixShift compares category shares between the two most recent months.
func (h *Handlers) MixShift(ctx context.Context, _ mcp.CallToolRequest, in MixShiftInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	threshold := in.ThresholdPP
	if threshold <= 0 {
		threshold = h.Policy.MixShiftThresholdPP
	}
	return h.withDataset(ctx, "mix_shift", in.Path, func(t *dataset.Table, _ string, _ int64) (*mcp.CallToolResult, error) {
		ms, err := analytics.CategoryMixShift(t, threshold)
		if err != nil {
			return nil, err
		}
		lines := make([]string, 0, len(ms.Groups))
		for _, g := range ms.Groups {
			mark := ""
			if g.Highlight {
				mark = " *"
			}
			lines = append(lines, fmt.Sprintf("- %s: %+.1f pp%s", g.Name, g.PPChange, mark))
		}
		summary := fmt.Sprintf("category mix %s vs %s", ms.Current.Format("2006-01"), ms.Baseline.Format("2006-01"))
		return h.result(ms, summary, lines...), nil
	})
}

// Delta reports the latest month-over-month change of a measure.
func (h *Handlers) Delta(ctx context.Context, _ mcp.CallToolRequest, in DeltaInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	m := dataset.Sales
	if strings.TrimSpace(in.Measure) != "" {
		parsed, err := dataset.ParseMeasure(in.Measure)
		if err != nil {
			return apperr.New(apperr.Validation, err.Error()), nil
		}
		m = parsed
	}
	return h.withDataset(ctx, "delta", in.Path, func(t *dataset.Table, id string, _ int64) (*mcp.CallToolResult, error) {
		d := insights.Delta(t, m)
		out := DeltaOutput{DatasetID: id, Measure: string(m), DeltaPct: d}
		return h.result(out, fmt.Sprintf("%s month-over-month: %+.1f%%", m.Title(), d)), nil
	})
}

// QuantityProfit pages through the quantity and profit of every order line.
func (h *Handlers) QuantityProfit(ctx context.Context, _ mcp.CallToolRequest, in QuantityProfitInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	return h.withDataset(ctx, quantityProfitTool, in.Path, func(t *dataset.Table, id string, ver int64) (*mcp.CallToolResult, error) {
		off, ps := 0, h.Limits.ClampPageSize(in.PageSize)
		if in.Cursor != "" {
			c, err := pagination.DecodeCursor(in.Cursor)
			if err != nil {
				return apperr.New(apperr.CursorInvalid, err.Error()), nil
			}
			if c.Did != id || c.T != quantityProfitTool || c.Dsv != ver {
				return apperr.New(apperr.CursorInvalid, "cursor does not match the current dataset"), nil
			}
			off, ps = c.Off, h.Limits.ClampPageSize(c.Ps)
		}

		all := analytics.QuantityVsProfit(t)
		start, end, more := pagination.Window(off, ps, len(all))
		meta := PageMeta{Total: len(all), Returned: end - start, Truncated: more}
		if more {
			next, err := pagination.EncodeCursor(pagination.Cursor{
				V: 1, Did: id, T: quantityProfitTool, Off: end, Ps: ps, Dsv: ver, Iat: time.Now().Unix(),
			})
			if err != nil {
				return nil, err
			}
			meta.NextCursor = next
		}
		out := QuantityProfitOutput{DatasetID: id, Rows: all[start:end], Meta: meta}
		return h.result(out, fmt.Sprintf("rows %d-%d of %d", start, end, len(all))), nil
	})
}

// DataHealth returns what cleaning dropped and imputed.
func (h *Handlers) DataHealth(ctx context.Context, _ mcp.CallToolRequest, in DatasetInput) (*mcp.CallToolResult, error) {
	return h.withHealth(ctx, "data_health", in.Path, func(_ *dataset.Table, rep cleaning.Report, id string, _ int64) (*mcp.CallToolResult, error) {
		lines := rep.Lines()
		out := HealthOutput{DatasetID: id, Report: rep, Lines: lines}
		return h.result(out, fmt.Sprintf("%d rows dropped", rep.Dropped()), lines...), nil
	})
}

// ExportReport writes the full report workbook to an allowed .xlsx path.
func (h *Handlers) ExportReport(ctx context.Context, _ mcp.CallToolRequest, in ExportInput) (*mcp.CallToolResult, error) {
	if res := invalid(in); res != nil {
		return res, nil
	}
	if h.Exports == nil {
		return apperr.New(apperr.PermissionDenied, "exports are disabled; start the server with -allow-export"), nil
	}
	output, err := h.Exports.ValidateWritePath(in.Output)
	if err != nil {
		return h.fail(ctx, "export_report", err), nil
	}
	return h.withHealth(ctx, "export_report", in.Path, func(t *dataset.Table, rep cleaning.Report, id string, _ int64) (*mcp.CallToolResult, error) {
		doc := report.Build(t, rep, h.Policy)
		if err := report.WriteWorkbook(output, doc); err != nil {
			return apperr.New(apperr.ExportFailed, err.Error()), nil
		}
		zerolog.Ctx(ctx).Info().Str("output", output).Str("dataset_id", id).Msg("report exported")
		out := ExportOutput{Output: output, Sheets: report.Sheets(), Notes: doc.Notes}
		return h.result(out, "wrote "+output, doc.Notes...), nil
	})
}

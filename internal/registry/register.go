package registry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// add registers a typed handler with the server and the tool with the registry.
func add[T any](s *server.MCPServer, reg *Registry, tool mcp.Tool, fn func(context.Context, mcp.CallToolRequest, T) (*mcp.CallToolResult, error)) {
	s.AddTool(tool, mcp.NewTypedToolHandler(fn))
	reg.Register(tool)
}

// RegisterTools defines every analysis tool and binds it to h.
func RegisterTools(s *server.MCPServer, reg *Registry, h *Handlers) {
	add(s, reg, mcp.NewTool(
		"kpis",
		mcp.WithDescription("Headline metrics in fixed order: total sales, total profit, orders, customers, average order value"),
		mcp.WithInputSchema[DatasetInput](),
		mcp.WithOutputSchema[KPIsOutput](),
	), h.KPIs)

	add(s, reg, mcp.NewTool(
		"sales_trend",
		mcp.WithDescription("Total sales per calendar month, oldest first"),
		mcp.WithInputSchema[DatasetInput](),
		mcp.WithOutputSchema[TrendOutput](),
	), h.SalesTrend)

	add(s, reg, mcp.NewTool(
		"insights",
		mcp.WithDescription("Rule-based findings followed by recommendations for declining sales, low margin and revenue concentration"),
		mcp.WithInputSchema[DatasetInput](),
		mcp.WithOutputSchema[InsightsOutput](),
	), h.Insights)

	add(s, reg, mcp.NewTool(
		"top_products",
		mcp.WithDescription("Products ranked by total sales, highest first"),
		mcp.WithInputSchema[TopNInput](),
		mcp.WithOutputSchema[GroupsOutput](),
	), h.TopProducts)

	add(s, reg, mcp.NewTool(
		"loss_products",
		mcp.WithDescription("Products ranked by total profit, most negative first"),
		mcp.WithInputSchema[TopNInput](),
		mcp.WithOutputSchema[GroupsOutput](),
	), h.LossProducts)

	add(s, reg, mcp.NewTool(
		"breakdown",
		mcp.WithDescription("Sales or profit summed by region or category"),
		mcp.WithInputSchema[BreakdownInput](),
		mcp.WithOutputSchema[GroupsOutput](),
	), h.Breakdown)

	add(s, reg, mcp.NewTool(
		"geo_sales",
		mcp.WithDescription("Sales per US state with two-letter postal codes"),
		mcp.WithInputSchema[DatasetInput](),
		mcp.WithOutputSchema[GeoOutput](),
	), h.GeoSales)

	add(s, reg, mcp.NewTool(
		"segment_performance",
		mcp.WithDescription("Sales and profit per customer segment"),
		mcp.WithInputSchema[DatasetInput](),
		mcp.WithOutputSchema[SegmentsOutput](),
	), h.SegmentPerformance)

	add(s, reg, mcp.NewTool(
		"cross_tab",
		mcp.WithDescription("Sales by region or segment and category"),
		mcp.WithInputSchema[CrossTabInput](),
		mcp.WithOutputSchema[CrossTabOutput](),
	), h.CrossTab)

	add(s, reg, mcp.NewTool(
		"correlation",
		mcp.WithDescription("Pearson correlation matrix over sales, profit, quantity and discount"),
		mcp.WithInputSchema[DatasetInput](),
	), h.Correlation)

	add(s, reg, mcp.NewTool(
		"forecast",
		mcp.WithDescription("Monthly sales forecast from a Holt linear trend model"),
		mcp.WithInputSchema[ForecastInput](),
		mcp.WithOutputSchema[ForecastOutput](),
	), h.Forecast)

	add(s, reg, mcp.NewTool(
		"concentration",
		mcp.WithDescription("Revenue share of the leading products with HHI and a concentration band"),
		mcp.WithInputSchema[ConcentrationInput](),
	), h.Concentration)

	add(s, reg, mcp.NewTool(
		"mix_shift",
		mcp.WithDescription("Category share change between the two most recent months in percentage points"),
		mcp.WithInputSchema[MixShiftInput](),
	), h.MixShift)

	add(s, reg, mcp.NewTool(
		"delta",
		mcp.WithDescription("Latest month-over-month percentage change of a measure"),
		mcp.WithInputSchema[DeltaInput](),
		mcp.WithOutputSchema[DeltaOutput](),
	), h.Delta)

	add(s, reg, mcp.NewTool(
		quantityProfitTool,
		mcp.WithDescription("Quantity, profit and category of every order line, paged with an opaque cursor"),
		mcp.WithInputSchema[QuantityProfitInput](),
		mcp.WithOutputSchema[QuantityProfitOutput](),
	), h.QuantityProfit)

	add(s, reg, mcp.NewTool(
		"data_health",
		mcp.WithDescription("Rows read, kept, dropped and imputed while cleaning the dataset"),
		mcp.WithInputSchema[DatasetInput](),
		mcp.WithOutputSchema[HealthOutput](),
	), h.DataHealth)

	add(s, reg, mcp.NewTool(
		"export_report",
		mcp.WithDescription("Write the full report workbook (.xlsx) to an allowed directory"),
		mcp.WithInputSchema[ExportInput](),
		mcp.WithOutputSchema[ExportOutput](),
	), h.ExportReport)
}

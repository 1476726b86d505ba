package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/analytics"
	"github.com/vinodismyname/storepulse/internal/runtime"
	"github.com/vinodismyname/storepulse/internal/security"
	"github.com/vinodismyname/storepulse/internal/store"
	"github.com/vinodismyname/storepulse/pkg/pagination"
)

const header = "Order ID,Customer ID,Order Date,Product Name,Category,Sub-Category,Region,Segment,State,City,Sales,Profit,Quantity,Discount\n"

var ordersRows = []string{
	"A1,C1,1/5/2016,Stapler,Office Supplies,Fasteners,West,Consumer,California,Los Angeles,100,20,2,0.1",
	"A2,C2,2/5/2016,Desk,Furniture,Tables,East,Corporate,New York,New York City,200,-30,1,0.2",
	"A3,C1,3/5/2016,Phone,Technology,Phones,West,Consumer,Washington,Seattle,300,60,3,0",
}

func writeOrders(t *testing.T, dir string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+strings.Join(rows, "\n")+"\n"), 0o644))
	return path
}

func newHandlers(t *testing.T, rows ...string) (*Handlers, string) {
	t.Helper()
	dir := t.TempDir()
	path := writeOrders(t, dir, rows...)
	sec, err := security.NewManager([]string{dir}, nil)
	require.NoError(t, err)
	st := store.NewManager(time.Minute, time.Minute, nil, time.Now)
	st.SetValidator(sec)
	return &Handlers{
		Store:       st,
		Limits:      runtime.NewLimits(2, 2),
		Policy:      config.DefaultPolicy(),
		DefaultPath: path,
		Registry:    New(),
	}, dir
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestRegistry_ToolsSortedAndFiltered(t *testing.T) {
	reg := New()
	reg.Register(mcp.NewTool("sales_trend"))
	reg.Register(mcp.NewTool("export_report"))
	reg.Register(mcp.NewTool("kpis"))

	tools, err := reg.Tools(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"export_report", "kpis", "sales_trend"}, []string{tools[0].Name, tools[1].Name, tools[2].Name})

	hidden := NewExportToolFilter(false).FilterTools(context.Background(), tools)
	require.Len(t, hidden, 2)
	for _, tool := range hidden {
		require.False(t, IsWriteTool(tool.Name))
	}
	require.Len(t, NewExportToolFilter(true).FilterTools(context.Background(), tools), 3)
}

func TestRegistry_TrimToBudget(t *testing.T) {
	reg := New()
	short := "one line"
	require.Equal(t, short, reg.TrimToBudget(short, 100))
	require.Equal(t, short, reg.TrimToBudget(short, 0))

	lines := make([]string, 400)
	for i := range lines {
		lines[i] = "- Product name with several words: 12,345.67"
	}
	text := "summary\n" + strings.Join(lines, "\n")
	trimmed := reg.TrimToBudget(text, 200)
	require.Less(t, len(trimmed), len(text))
	require.True(t, strings.HasPrefix(trimmed, "summary\n"))
	require.True(t, strings.HasSuffix(trimmed, truncationMarker))
}

func TestRegisterTools_AllListed(t *testing.T) {
	h, _ := newHandlers(t, ordersRows...)
	s := server.NewMCPServer("test", "0", server.WithToolCapabilities(true))
	reg := New()
	RegisterTools(s, reg, h)

	tools, err := reg.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 17)
	_, ok := reg.Get("export_report")
	require.True(t, ok)
}

func TestKPIs_StructuredAndText(t *testing.T) {
	h, _ := newHandlers(t, ordersRows...)
	res, err := h.KPIs(context.Background(), mcp.CallToolRequest{}, DatasetInput{})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	out, ok := res.StructuredContent.(KPIsOutput)
	require.True(t, ok)
	require.Len(t, out.KPIs, 5)
	require.Equal(t, analytics.KPITotalSales, out.KPIs[0].Name)
	require.InDelta(t, 600.0, out.KPIs[0].Value, 1e-9)
	require.InDelta(t, 50.0/600*100, out.MarginPct, 1e-9)

	text := textOf(t, res)
	require.Contains(t, text, "- Total Sales: 600.00")
	require.Contains(t, text, "- Customers: 2")
}

func TestHandlers_Validation(t *testing.T) {
	h, _ := newHandlers(t, ordersRows...)
	ctx := context.Background()

	res, err := h.TopProducts(ctx, mcp.CallToolRequest{}, TopNInput{N: 500})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "VALIDATION:"))

	res, err = h.CrossTab(ctx, mcp.CallToolRequest{}, CrossTabInput{By: "city"})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, textOf(t, res), "region, segment")

	res, err = h.Delta(ctx, mcp.CallToolRequest{}, DeltaInput{Measure: "margin"})
	require.NoError(t, err)
	require.True(t, res.IsError)

	h.DefaultPath = ""
	res, err = h.KPIs(ctx, mcp.CallToolRequest{}, DatasetInput{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "VALIDATION:"))
}

func TestHandlers_PathErrors(t *testing.T) {
	h, _ := newHandlers(t, ordersRows...)
	ctx := context.Background()

	outside := writeOrders(t, t.TempDir(), ordersRows...)
	res, err := h.KPIs(ctx, mcp.CallToolRequest{}, DatasetInput{Path: outside})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "PERMISSION_DENIED:"))

	res, err = h.KPIs(ctx, mcp.CallToolRequest{}, DatasetInput{Path: filepath.Join(filepath.Dir(h.DefaultPath), "missing.csv")})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "DATA_FORMAT:"))
}

func TestHandlers_MalformedFile(t *testing.T) {
	h, dir := newHandlers(t, ordersRows...)
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Order ID,Sales\nA1,10\n"), 0o644))

	res, err := h.SalesTrend(context.Background(), mcp.CallToolRequest{}, DatasetInput{Path: bad})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "DATA_FORMAT:"))
}

func TestForecast_InsufficientData(t *testing.T) {
	h, _ := newHandlers(t, ordersRows[0])
	res, err := h.Forecast(context.Background(), mcp.CallToolRequest{}, ForecastInput{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "INSUFFICIENT_DATA:"))
}

func TestForecast_DefaultHorizon(t *testing.T) {
	h, _ := newHandlers(t, ordersRows...)
	res, err := h.Forecast(context.Background(), mcp.CallToolRequest{}, ForecastInput{})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))
	out, ok := res.StructuredContent.(ForecastOutput)
	require.True(t, ok)
	require.Len(t, out.Points, config.ForecastPeriods)
	require.Equal(t, time.Date(2016, time.April, 1, 0, 0, 0, 0, time.UTC), out.Points[0].Month)
}

func TestBreakdownAndLossProducts(t *testing.T) {
	h, _ := newHandlers(t, ordersRows...)
	ctx := context.Background()

	res, err := h.Breakdown(ctx, mcp.CallToolRequest{}, BreakdownInput{By: "region", Measure: "profit"})
	require.NoError(t, err)
	out, ok := res.StructuredContent.(GroupsOutput)
	require.True(t, ok)
	require.Equal(t, []analytics.GroupValue{{Key: "East", Value: -30}, {Key: "West", Value: 80}}, out.Groups)

	res, err = h.LossProducts(ctx, mcp.CallToolRequest{}, TopNInput{})
	require.NoError(t, err)
	out, ok = res.StructuredContent.(GroupsOutput)
	require.True(t, ok)
	require.Len(t, out.Groups, 3)
	require.Equal(t, "Desk", out.Groups[0].Key)
	require.InDelta(t, -30.0, out.Groups[0].Value, 1e-9)
}

func TestQuantityProfit_Pagination(t *testing.T) {
	h, _ := newHandlers(t, ordersRows...)
	ctx := context.Background()

	res, err := h.QuantityProfit(ctx, mcp.CallToolRequest{}, QuantityProfitInput{PageSize: 2})
	require.NoError(t, err)
	page1, ok := res.StructuredContent.(QuantityProfitOutput)
	require.True(t, ok)
	require.Len(t, page1.Rows, 2)
	require.Equal(t, 3, page1.Meta.Total)
	require.True(t, page1.Meta.Truncated)
	require.NotEmpty(t, page1.Meta.NextCursor)

	res, err = h.QuantityProfit(ctx, mcp.CallToolRequest{}, QuantityProfitInput{Cursor: page1.Meta.NextCursor})
	require.NoError(t, err)
	page2, ok := res.StructuredContent.(QuantityProfitOutput)
	require.True(t, ok)
	require.Len(t, page2.Rows, 1)
	require.False(t, page2.Meta.Truncated)
	require.Empty(t, page2.Meta.NextCursor)

	foreign, err := pagination.EncodeCursor(pagination.Cursor{Did: "other", T: quantityProfitTool, Off: 2, Ps: 2})
	require.NoError(t, err)
	res, err = h.QuantityProfit(ctx, mcp.CallToolRequest{}, QuantityProfitInput{Cursor: foreign})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "CURSOR_INVALID:"))

	res, err = h.QuantityProfit(ctx, mcp.CallToolRequest{}, QuantityProfitInput{Cursor: "not-a-cursor"})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "CURSOR_INVALID:"))
}

func TestDataHealth(t *testing.T) {
	h, _ := newHandlers(t, append(ordersRows, ordersRows[0], "A9,C9,4/5/2016,Lamp,Furniture,Furnishings,South,Consumer,Texas,Dallas,10,1,0,0")...)
	res, err := h.DataHealth(context.Background(), mcp.CallToolRequest{}, DatasetInput{})
	require.NoError(t, err)
	out, ok := res.StructuredContent.(HealthOutput)
	require.True(t, ok)
	require.Equal(t, 5, out.Report.RowsRead)
	require.Equal(t, 3, out.Report.RowsKept)
	require.Equal(t, 1, out.Report.DuplicatesRemoved)
	require.Equal(t, 1, out.Report.DroppedNonPositiveQuantity)
}

func TestExportReport(t *testing.T) {
	h, dir := newHandlers(t, ordersRows...)
	ctx := context.Background()
	output := filepath.Join(dir, "report.xlsx")

	res, err := h.ExportReport(ctx, mcp.CallToolRequest{}, ExportInput{Output: output})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.True(t, strings.HasPrefix(textOf(t, res), "PERMISSION_DENIED:"))

	sec, err := security.NewManager([]string{dir}, nil)
	require.NoError(t, err)
	h.Exports = sec

	res, err = h.ExportReport(ctx, mcp.CallToolRequest{}, ExportInput{Output: filepath.Join(dir, "report.csv")})
	require.NoError(t, err)
	require.True(t, res.IsError)

	res, err = h.ExportReport(ctx, mcp.CallToolRequest{}, ExportInput{Output: output})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))
	out, ok := res.StructuredContent.(ExportOutput)
	require.True(t, ok)
	require.Len(t, out.Sheets, 6)
	_, err = os.Stat(out.Output)
	require.NoError(t, err)
}

// callWithin fails the test when call does not return before the deadline.
func callWithin(t *testing.T, d time.Duration, call func() (*mcp.CallToolResult, error)) *mcp.CallToolResult {
	t.Helper()
	type outcome struct {
		res *mcp.CallToolResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := call()
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		require.NoError(t, o.err)
		return o.res
	case <-time.After(d):
		require.FailNow(t, "tool call did not return", "waited %s", d)
		return nil
	}
}

func TestHealthTools_ReturnWithinDeadline(t *testing.T) {
	h, dir := newHandlers(t, ordersRows...)
	sec, err := security.NewManager([]string{dir}, nil)
	require.NoError(t, err)
	h.Exports = sec
	ctx := context.Background()

	res := callWithin(t, 5*time.Second, func() (*mcp.CallToolResult, error) {
		return h.DataHealth(ctx, mcp.CallToolRequest{}, DatasetInput{})
	})
	require.False(t, res.IsError, textOf(t, res))

	res = callWithin(t, 5*time.Second, func() (*mcp.CallToolResult, error) {
		return h.ExportReport(ctx, mcp.CallToolRequest{}, ExportInput{Output: filepath.Join(dir, "report.xlsx")})
	})
	require.False(t, res.IsError, textOf(t, res))

	// The handle stays usable for later reads.
	res = callWithin(t, 5*time.Second, func() (*mcp.CallToolResult, error) {
		return h.KPIs(ctx, mcp.CallToolRequest{}, DatasetInput{})
	})
	require.False(t, res.IsError, textOf(t, res))
	require.Equal(t, 1, h.Store.Count())
}

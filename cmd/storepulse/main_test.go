package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/report"
	"github.com/xuri/excelize/v2"
)

const orders = `Order ID,Customer ID,Order Date,Product Name,Category,Sub-Category,Region,Segment,State,City,Sales,Profit,Quantity,Discount
A1,C1,1/5/2016,Stapler,Office Supplies,Fasteners,West,Consumer,California,Los Angeles,100,20,2,0.1
A2,C2,2/5/2016,Desk,Furniture,Tables,East,Corporate,New York,New York City,200,-30,1,0.2
A3,C1,3/5/2016,Phone,Technology,Phones,West,Consumer,Washington,Seattle,300,60,3,0
`

func testOptions(t *testing.T, body string) options {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return options{File: path, ShutdownTimeout: time.Second, Policy: config.DefaultPolicy()}
}

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

func TestRun_PrintsMarkdown(t *testing.T) {
	opts := testOptions(t, orders)
	var out bytes.Buffer
	require.NoError(t, run(testContext(), opts, &out))

	text := out.String()
	require.True(t, strings.HasPrefix(text, "# "+report.Title))
	require.Contains(t, text, "- Total Sales: 600.00 (+50.0% vs previous month)\n")
	require.Contains(t, text, "## Data health")
}

func TestRun_ExportsWorkbook(t *testing.T) {
	opts := testOptions(t, orders)
	opts.Export = filepath.Join(filepath.Dir(opts.File), "report.xlsx")
	var out bytes.Buffer
	require.NoError(t, run(testContext(), opts, &out))
	require.Contains(t, out.String(), "Wrote ")

	f, err := excelize.OpenFile(opts.Export)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, report.Sheets(), f.GetSheetList())
}

func TestRun_Errors(t *testing.T) {
	require.ErrorIs(t, run(testContext(), options{Policy: config.DefaultPolicy()}, &bytes.Buffer{}), errUsage)

	opts := testOptions(t, orders)
	opts.File = filepath.Join(filepath.Dir(opts.File), "missing.csv")
	err := run(testContext(), opts, &bytes.Buffer{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "file not found")

	opts = testOptions(t, "Order ID,Sales\nA1,10\n")
	err = run(testContext(), opts, &bytes.Buffer{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot load")

	opts = testOptions(t, orders)
	opts.Policy.TopProducts = 0
	require.Error(t, run(testContext(), opts, &bytes.Buffer{}))

	opts = testOptions(t, orders)
	opts.Export = filepath.Join(filepath.Dir(opts.File), "report.pdf")
	require.Error(t, run(testContext(), opts, &bytes.Buffer{}))
}

package report

import (
	"fmt"

	"github.com/vinodismyname/storepulse/internal/analytics"
	"github.com/vinodismyname/storepulse/internal/cleaning"
	"github.com/xuri/excelize/v2"
)

// Sheet names in workbook order.
const (
	SheetReport   = "Report"
	SheetTrend    = "Trend"
	SheetTop      = "Top Products"
	SheetLoss     = "Loss Products"
	SheetGeo      = "Geo"
	SheetData     = "Data"
	defaultSheet  = "Sheet1"
	monthLayout   = "2006-01"
	headerRowSize = 1
)

// sheetWriter appends rows to one sheet and remembers the first write error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) add(values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

func (w *sheetWriter) skip() { w.row++ }

// Sheets returns the workbook's sheet names in order.
func Sheets() []string {
	return []string{SheetReport, SheetTrend, SheetTop, SheetLoss, SheetGeo, SheetData}
}

// WriteWorkbook saves doc as an XLSX file at path. The Report sheet lists every KPI
// in Entries order, then insights, notes and data health.
func WriteWorkbook(path string, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetReport); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	for _, name := range Sheets()[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("report: new sheet %s: %w", name, err)
		}
	}

	writers := []func(*excelize.File, Document) error{
		writeSummary, writeTrend, writeProducts, writeGeo, writeData,
	}
	for _, fn := range writers {
		if err := fn(f, doc); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, doc Document) error {
	w := &sheetWriter{f: f, sheet: SheetReport}
	title := doc.Title
	if title == "" {
		title = Title
	}
	w.add(title)
	w.add("Metric", "Value", "Change vs previous month (%)")
	for _, k := range doc.KPIs.Entries() {
		switch {
		case k.Count:
			w.add(k.Name, int64(k.Value))
		case k.Name == analytics.KPITotalSales:
			w.add(k.Name, k.Value, doc.SalesDelta)
		default:
			w.add(k.Name, k.Value)
		}
	}
	if len(doc.Insights) > 0 {
		w.skip()
		w.add("Insights")
		for _, in := range doc.Insights {
			w.add(in.Text)
		}
	}
	if len(doc.Notes) > 0 {
		w.skip()
		w.add("Notes")
		for _, n := range doc.Notes {
			w.add(n)
		}
	}
	w.skip()
	w.add("Data health")
	for _, l := range doc.Health.Lines() {
		w.add(l)
	}
	if w.err != nil {
		return w.err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetReport, "A1", "A1", bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetReport, "A", "A", 60)
}

func writeTrend(f *excelize.File, doc Document) error {
	w := &sheetWriter{f: f, sheet: SheetTrend}
	w.add("Month", "Sales", "Forecast")
	for _, p := range doc.Trend {
		w.add(p.Month.Format(monthLayout), p.Value, nil)
	}
	for _, p := range doc.Forecast {
		w.add(p.Month.Format(monthLayout), nil, p.Forecast)
	}
	return w.err
}

func writeProducts(f *excelize.File, doc Document) error {
	top := &sheetWriter{f: f, sheet: SheetTop}
	top.add("Product Name", "Sales")
	for _, g := range doc.TopProducts {
		top.add(g.Key, g.Value)
	}
	if top.err != nil {
		return top.err
	}
	loss := &sheetWriter{f: f, sheet: SheetLoss}
	loss.add("Product Name", "Profit")
	for _, g := range doc.LossProducts {
		loss.add(g.Key, g.Value)
	}
	return loss.err
}

func writeGeo(f *excelize.File, doc Document) error {
	w := &sheetWriter{f: f, sheet: SheetGeo}
	w.add("State", "Code", "Label", "Sales")
	for _, s := range doc.Geo {
		w.add(s.State, s.Code, s.Label, s.Sales)
	}
	return w.err
}

func writeData(f *excelize.File, doc Document) error {
	if doc.Table == nil {
		return nil
	}
	raw := cleaning.Encode(doc.Table)
	w := &sheetWriter{f: f, sheet: SheetData}
	header := make([]any, len(raw.Header))
	for i, h := range raw.Header {
		header[i] = h
	}
	w.add(header...)
	for _, r := range raw.Rows {
		row := make([]any, len(r))
		for i, c := range r {
			row[i] = c
		}
		w.add(row...)
	}
	if w.err != nil {
		return w.err
	}
	return f.SetPanes(SheetData, &excelize.Panes{Freeze: true, YSplit: headerRowSize, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

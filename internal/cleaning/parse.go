package cleaning

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vinodismyname/storepulse/pkg/apperr"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// RawTable is the untyped text grid read from an input file: one header row and
// data rows of possibly uneven width.
type RawTable struct {
	Header []string
	Rows   [][]string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile reads a CSV or Excel file into a RawTable, choosing the reader by extension.
func ReadFile(path string) (RawTable, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return RawTable{}, apperr.NewDataFormat("open input", err)
		}
		defer f.Close()
		return Parse(f)
	case ".xlsx", ".xlsm":
		return ReadWorkbook(path)
	default:
		return RawTable{}, apperr.NewDataFormat(fmt.Sprintf("unsupported input format %q", ext), nil)
	}
}

// Parse reads delimited text. Valid UTF-8 is used as-is; anything else is decoded as
// Windows-1252, the usual encoding of spreadsheet CSV exports.
func Parse(r io.Reader) (RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RawTable{}, apperr.NewDataFormat("read input", err)
	}
	data, err = decodeText(data)
	if err != nil {
		return RawTable{}, apperr.NewDataFormat("decode input", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return RawTable{}, apperr.NewDataFormat("input is empty", nil)
	}
	if err != nil {
		return RawTable{}, apperr.NewDataFormat("parse header", err)
	}

	out := RawTable{Header: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return RawTable{}, apperr.NewDataFormat("parse rows", err)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	return io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder()))
}

// ReadWorkbook reads the first sheet of an Excel workbook into a RawTable.
func ReadWorkbook(path string) (RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return RawTable{}, apperr.NewDataFormat("open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return RawTable{}, apperr.NewDataFormat("workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return RawTable{}, apperr.NewDataFormat(fmt.Sprintf("read sheet %q", sheets[0]), err)
	}
	if len(rows) == 0 {
		return RawTable{}, apperr.NewDataFormat("input is empty", nil)
	}
	return RawTable{Header: rows[0], Rows: rows[1:]}, nil
}

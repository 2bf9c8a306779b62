// =============================================================================
// XML to JSON Converter - NFe Report Writer
// =============================================================================
//
// This module writes the NFe records of a batch run as a spreadsheet, one row
// per invoice, so fiscal totals can be checked without opening every JSON.
//
// FORMATS:
//   - XLSX : sheet "NFe" with the summary fields, sheet "Itens" with one row
//            per product; bold header, frozen first row, autofilter
//   - CSV  : the "NFe" sheet only
//
// COLUMNS:
//   arquivo | <summary fields in record order> | quantidade_itens | campos_ausentes
//
// =============================================================================

package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/nfe"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

const (
	// InvoiceSheet holds one row per invoice.
	InvoiceSheet = "NFe"

	// ItemSheet holds one row per product.
	ItemSheet = "Itens"
)

// Entry is one invoice with the file it came from.
type Entry struct {
	Source string
	Record *nfe.Record
}

// =============================================================================
// ROWS
// =============================================================================

// InvoiceHeader returns the invoice sheet column names.
func InvoiceHeader() []string {
	fields := nfe.DefaultFieldTable()
	header := make([]string, 0, len(fields)+3)
	header = append(header, "arquivo")
	for _, f := range fields {
		header = append(header, f.Name)
	}
	return append(header, "quantidade_itens", "campos_ausentes")
}

// ItemHeader returns the item sheet column names.
func ItemHeader() []string {
	fields := nfe.ItemFieldTable()
	header := make([]string, 0, len(fields)+2)
	header = append(header, "arquivo", "chave_nfe")
	for _, f := range fields {
		header = append(header, f.Name)
	}
	return header
}

// invoiceRow renders e. Monetary fields in plain decimal form become numbers
// so spreadsheet formulas work on them.
func invoiceRow(e Entry) []any {
	fields := nfe.DefaultFieldTable()
	row := make([]any, 0, len(fields)+3)
	row = append(row, e.Source)
	for _, f := range fields {
		row = append(row, cell(f.Kind, e.Record.Get(f.Name)))
	}
	return append(row, len(e.Record.Items), strings.Join(e.Record.Missing, ", "))
}

func itemRows(e Entry) [][]any {
	fields := nfe.ItemFieldTable()
	chave := e.Record.Get("chave_nfe")

	rows := make([][]any, 0, len(e.Record.Items))
	for _, it := range e.Record.Items {
		obj, ok := it.(*types.Object)
		if !ok {
			continue
		}
		row := make([]any, 0, len(fields)+2)
		row = append(row, e.Source, chave)
		for _, f := range fields {
			v, _ := obj.Get(f.Name)
			row = append(row, cell(f.Kind, text(v)))
		}
		rows = append(rows, row)
	}
	return rows
}

func cell(kind nfe.Kind, s string) any {
	if kind == nfe.KindMoney || kind == nfe.KindQuantity {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func text(v types.Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// =============================================================================
// XLSX
// =============================================================================

// WriteXLSX writes entries to an XLSX workbook at path.
//
// PARAMETERS:
//   - path: The output file. Parent directories are created.
//   - entries: The invoices, in row order.
//
// RETURNS:
//   - An error if the workbook cannot be built or saved.
func WriteXLSX(path string, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), InvoiceSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	invoices := make([][]any, len(entries))
	var items [][]any
	for i, e := range entries {
		invoices[i] = invoiceRow(e)
		items = append(items, itemRows(e)...)
	}

	if err := writeSheet(f, InvoiceSheet, InvoiceHeader(), invoices, headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, ItemSheet, ItemHeader(), items, headerStyle); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, style int) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, ref, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	if err := f.AutoFilter(sheet, "A1:"+last, nil); err != nil {
		return fmt.Errorf("failed to add %s autofilter: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze %s header: %w", sheet, err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// =============================================================================
// CSV
// =============================================================================

// CSVOptions contains options for CSV output.
type CSVOptions struct {
	// Delimiter separates fields.
	// Default: ','
	Delimiter rune
}

// WriteCSV writes the invoice rows of entries to w.
func WriteCSV(w io.Writer, entries []Entry, opts CSVOptions) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	if err := cw.Write(InvoiceHeader()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		row := invoiceRow(e)
		record := make([]string, len(row))
		for i, c := range row {
			switch v := c.(type) {
			case string:
				record[i] = v
			case float64:
				record[i] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				record[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes entries to path, choosing the format by extension
// (.xlsx or .csv).
func WriteFile(path string, entries []Entry) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, entries)
	case ".csv":
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := WriteCSV(file, entries, CSVOptions{}); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	default:
		return fmt.Errorf("unsupported report format %q (expected .xlsx or .csv)", filepath.Ext(path))
	}
}

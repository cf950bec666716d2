package tabular

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"langprops/internal/propset"
)

const (
	maxSheetNameLen = 31
	maxColumnWidth  = 80
	multipleSheet   = "Multiple"
)

// Excel imports and exports .xlsx workbooks holding a single sheet.
type Excel struct{}

func NewExcel() *Excel { return &Excel{} }

func (e *Excel) CanHandle(ext string) bool {
	return ext == ".xlsx"
}

// SheetNames lists the sheets of a workbook.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func (e *Excel) Import(ctx context.Context, path string, progress ProgressFunc) ([]*propset.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &propset.ParseError{File: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	switch {
	case len(sheets) == 0:
		return nil, &propset.ParseError{File: path, Err: fmt.Errorf("excel file does not contain expected sheet")}
	case len(sheets) > 1:
		return nil, &propset.ParseError{File: path, Err: fmt.Errorf("excel file contains more than 1 sheet: %s", strings.Join(sheets, ", "))}
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &propset.ParseError{File: path, Err: fmt.Errorf("read sheet %s: %w", sheet, err)}
	}
	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, &propset.ParseError{File: path, Row: r + 1, Column: c + 1, Err: err}
			}
			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				return nil, &propset.ParseError{File: path, Row: r + 1, Column: c + 1, Err: err}
			}
			if typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset {
				row[c] = formatNumber(value)
			}
		}
	}

	records, err := importRows(ctx, path, rows, progress)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Str("sheet", sheet).Int("records", len(records)).Msg("Imported Excel")
	return records, nil
}

// formatNumber renders integral numbers without a decimal point.
func formatNumber(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (e *Excel) Export(ctx context.Context, records []*propset.Record, path string, overwrite bool, progress ProgressFunc) error {
	if err := checkOverwrite(path, overwrite); err != nil {
		return err
	}

	table := newExportTable(records)
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(propset.SetNames(table.records))
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("create cell style: %w", err)
	}

	widths := make([]int, len(table.header))
	setRow := func(rowNum int, values []any) error {
		for i, v := range values {
			name, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, name, v); err != nil {
				return err
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(fmt.Sprint(v)))
		}
		return nil
	}

	header := make([]any, len(table.header))
	for i, h := range table.header {
		header[i] = h
	}
	if err := setRow(1, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	firstSign := len(table.header) - len(table.signs) + 1
	for i, r := range table.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		rowNum := i + 2
		cells := table.row(r)
		values := make([]any, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		values[1] = r.OriginalIndex
		if err := setRow(rowNum, values); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}
		if len(table.signs) > 0 {
			from, _ := excelize.CoordinatesToCellName(firstSign, rowNum)
			to, _ := excelize.CoordinatesToCellName(len(table.header), rowNum)
			if err := f.SetCellStyle(sheet, from, to, wrap); err != nil {
				return fmt.Errorf("style row %d: %w", rowNum, err)
			}
		}
		progress.report(i+1, len(table.records))
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, maxColumnWidth))); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save excel file: %w", err)
	}
	log.Info().Str("file", path).Str("sheet", sheet).Int("records", len(table.records)).Msg("Exported Excel")
	return nil
}

// sheetName names the sheet after the single exported set, else "Multiple".
func sheetName(setNames []string) string {
	if len(setNames) != 1 {
		return multipleSheet
	}
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, setNames[0])
	if name == "" {
		return multipleSheet
	}
	if utf8.RuneCountInString(name) > maxSheetNameLen {
		name = string([]rune(name)[:maxSheetNameLen])
	}
	return name
}

package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// maxExcelRows is the worksheet row limit of the xlsx format.
const maxExcelRows = 1048576

// ExcelEncoder writes a single-sheet .xlsx workbook through excelize's
// StreamWriter. The workbook is serialized to w on Close.
type ExcelEncoder struct {
	f      *excelize.File
	sw     *excelize.StreamWriter
	w      io.Writer
	rowIdx int
	err    error
}

func NewExcelEncoder(w io.Writer) *ExcelEncoder {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter("Sheet1")
	if err != nil {
		_ = f.Close()
		return &ExcelEncoder{err: err}
	}
	return &ExcelEncoder{f: f, sw: sw, w: w, rowIdx: 1}
}

func (e *ExcelEncoder) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, col := range columns {
		row[i] = col
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) WriteRow(values []any) error {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = excelCell(v)
	}
	return e.setRow(row)
}

// excelCell keeps numbers, booleans and times native; everything else becomes
// formula-escaped text.
func excelCell(v any) any {
	switch val := v.(type) {
	case int64, int, float64, bool:
		return val
	case time.Time:
		// Serial dates carry no zone; keep the decoded wall clock.
		return time.Date(val.Year(), val.Month(), val.Day(), val.Hour(), val.Minute(), val.Second(), val.Nanosecond(), time.UTC)
	default:
		return escapeFormula(formatValue(val))
	}
}

func (e *ExcelEncoder) setRow(row []any) error {
	if e.err != nil {
		return e.err
	}
	if e.rowIdx > maxExcelRows {
		e.err = fmt.Errorf("excel row limit exceeded (%d rows)", maxExcelRows)
		return e.err
	}

	cell, err := excelize.CoordinatesToCellName(1, e.rowIdx)
	if err != nil {
		e.err = err
		return err
	}
	if err := e.sw.SetRow(cell, row); err != nil {
		e.err = err
		return err
	}
	e.rowIdx++
	return nil
}

// Flush is a no-op; the workbook can only be serialized once, by Close.
func (e *ExcelEncoder) Flush() error {
	return e.err
}

func (e *ExcelEncoder) Error() error {
	return e.err
}

// Close finishes the sheet and writes the workbook to the underlying writer.
func (e *ExcelEncoder) Close() error {
	if e.f == nil {
		return e.err
	}
	defer e.f.Close()

	if e.err != nil {
		return e.err
	}
	if err := e.sw.Flush(); err != nil {
		e.err = err
		return err
	}
	if err := e.f.Write(e.w); err != nil {
		e.err = err
	}
	return e.err
}

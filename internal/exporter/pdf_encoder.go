package exporter

import (
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const pdfRowHeight = 7.0

// PDFEncoder renders rows as a landscape A4 grid. Intended for small results:
// the whole document is held in memory until Close.
type PDFEncoder struct {
	pdf      *fpdf.Fpdf
	w        io.Writer
	colWidth float64
	err      error
}

func NewPDFEncoder(w io.Writer) *PDFEncoder {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 9)
	pdf.AddPage()
	return &PDFEncoder{pdf: pdf, w: w}
}

func (e *PDFEncoder) WriteHeader(columns []string) error {
	if e.err != nil {
		return e.err
	}
	if len(columns) == 0 {
		return nil
	}

	pageWidth, _ := e.pdf.GetPageSize()
	left, _, right, _ := e.pdf.GetMargins()
	e.colWidth = (pageWidth - left - right) / float64(len(columns))

	e.pdf.SetFont("Arial", "B", 9)
	for _, col := range columns {
		e.pdf.CellFormat(e.colWidth, pdfRowHeight, col, "1", 0, "C", false, 0, "")
	}
	e.pdf.Ln(-1)
	e.pdf.SetFont("Arial", "", 9)
	return e.pdf.Error()
}

func (e *PDFEncoder) WriteRow(values []any) error {
	if e.err != nil {
		return e.err
	}
	for _, v := range values {
		text := formatValue(v)
		// Core fonts are latin-1 only; truncate long cells rather than wrap.
		if limit := int(e.colWidth * 0.6); limit > 3 && len(text) > limit {
			text = text[:limit-3] + "..."
		}
		e.pdf.CellFormat(e.colWidth, pdfRowHeight, strings.ReplaceAll(text, "\n", " "), "1", 0, "L", false, 0, "")
	}
	e.pdf.Ln(-1)
	e.err = e.pdf.Error()
	return e.err
}

// Flush is a no-op; the document is written by Close.
func (e *PDFEncoder) Flush() error {
	return e.err
}

func (e *PDFEncoder) Error() error {
	return e.err
}

func (e *PDFEncoder) Close() error {
	if e.err != nil {
		return e.err
	}
	e.err = e.pdf.Output(e.w)
	return e.err
}

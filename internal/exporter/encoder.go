package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// RowEncoder writes decoded statement results in one export format.
type RowEncoder interface {
	// WriteHeader writes the column names. Called exactly once before any row.
	WriteHeader(columns []string) error

	// WriteRow writes a single decoded row; len(values) matches the header.
	WriteRow(values []any) error

	// Flush writes buffered data to the underlying writer. Document formats
	// (xlsx, pdf) buffer the whole body until Close.
	Flush() error

	// Error returns the first error that occurred during encoding, if any.
	Error() error

	// Close finishes the document (xlsx/pdf write their body here).
	io.Closer
}

// NewEncoder returns the encoder for format; unknown formats fall back to CSV.
func NewEncoder(format string, w io.Writer) RowEncoder {
	switch format {
	case "json":
		return NewJSONEncoder(w)
	case "excel", "xlsx":
		return NewExcelEncoder(w)
	case "pdf":
		return NewPDFEncoder(w)
	default:
		return NewCSVEncoder(w)
	}
}

// Extension maps an export format to its file extension.
func Extension(format string) string {
	switch format {
	case "json":
		return "jsonl"
	case "excel", "xlsx":
		return "xlsx"
	case "pdf":
		return "pdf"
	default:
		return "csv"
	}
}

// formatValue renders a decoded value as text for the tabular formats.
func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return string(v)
	case time.Time:
		if v.IsZero() {
			return "0000-00-00 00:00:00"
		}
		if v.Nanosecond() == 0 {
			return v.Format("2006-01-02 15:04:05")
		}
		return v.Format("2006-01-02 15:04:05.000000")
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// escapeFormula prefixes values a spreadsheet would evaluate as a formula.
func escapeFormula(s string) string {
	if len(s) > 0 {
		switch s[0] {
		case '=', '+', '-', '@':
			return "'" + s
		}
	}
	return s
}

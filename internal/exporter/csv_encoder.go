package exporter

import (
	"bufio"
	"encoding/csv"
	"io"
)

// CSVEncoder writes RFC 4180 CSV through a 64KB buffer.
type CSVEncoder struct {
	w   *csv.Writer
	buf *bufio.Writer
}

func NewCSVEncoder(w io.Writer) *CSVEncoder {
	buf := bufio.NewWriterSize(w, 64*1024)
	return &CSVEncoder{
		w:   csv.NewWriter(buf),
		buf: buf,
	}
}

func (e *CSVEncoder) WriteHeader(columns []string) error {
	return e.w.Write(columns)
}

func (e *CSVEncoder) WriteRow(values []any) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = escapeFormula(formatValue(v))
	}
	return e.w.Write(record)
}

func (e *CSVEncoder) Flush() error {
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}
	return e.buf.Flush()
}

func (e *CSVEncoder) Error() error {
	return e.w.Error()
}

func (e *CSVEncoder) Close() error {
	return e.Flush()
}

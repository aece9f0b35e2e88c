package exporter

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
)

// JSONEncoder writes JSON Lines: one object per row keyed by column name.
// Decoded values keep their JSON types (numbers, booleans, nested JSON).
type JSONEncoder struct {
	buf     *bufio.Writer
	enc     *json.Encoder
	columns []string
	err     error
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONEncoder{buf: buf, enc: enc}
}

// WriteHeader captures the column names used as object keys.
func (e *JSONEncoder) WriteHeader(columns []string) error {
	e.columns = columns
	return nil
}

func (e *JSONEncoder) WriteRow(values []any) error {
	if e.err != nil {
		return e.err
	}

	row := make(map[string]any, len(values))
	for i, v := range values {
		name := "col_" + strconv.Itoa(i)
		if i < len(e.columns) {
			name = e.columns[i]
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		row[name] = v
	}

	if err := e.enc.Encode(row); err != nil {
		e.err = err
		return err
	}
	return nil
}

func (e *JSONEncoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.buf.Flush(); err != nil {
		e.err = err
	}
	return e.err
}

func (e *JSONEncoder) Error() error {
	return e.err
}

func (e *JSONEncoder) Close() error {
	return e.Flush()
}

package typecast

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const naiveLayout = "2006-01-02 15:04:05"

var zonedLayouts = []string{
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
	time.RFC3339Nano,
}

// MySQLParsers returns the decode functions installed for the MySQL family.
func MySQLParsers() map[string]DecodeFunc {
	return map[string]DecodeFunc{
		"DATETIME":   parseNaiveTime,
		"TIMESTAMP":  parseNaiveTime,
		"DECIMAL":    parseDecimal,
		"NEWDECIMAL": parseDecimal,
		"JSON":       parseJSON,
	}
}

// PostgresParsers returns the decode functions installed for the Postgres family.
func PostgresParsers() map[string]DecodeFunc {
	return map[string]DecodeFunc{
		"TIMESTAMP":   parseNaiveTime,
		"TIMESTAMPTZ": parseZonedTime,
		"NUMERIC":     parseDecimal,
		"JSON":        parseJSON,
		"JSONB":       parseJSON,
		"UUID":        parseUUID,
	}
}

// rawString runs fallback and reports whether it produced a string.
// Non-string values (including NULL) are returned untouched in v.
func rawString(fallback Fallback) (s string, v any, ok bool, err error) {
	v, err = fallback()
	if err != nil {
		return "", nil, false, err
	}
	s, ok = v.(string)
	return s, v, ok, nil
}

func parseNaiveTime(field Field, opts Options, fallback Fallback) (any, error) {
	s, v, ok, err := rawString(fallback)
	if err != nil || !ok {
		return v, err
	}
	if isZeroDate(s) {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(naiveLayout, s, opts.location())
	if err != nil {
		return nil, fmt.Errorf("column %s: invalid %s value %q: %w", field.Name, field.Type, s, err)
	}
	return t, nil
}

// isZeroDate matches MySQL's zero date ("0000-00-00 00:00:00[.000]"), which
// decodes to the zero time.Time like go-sql-driver/mysql does with parseTime.
func isZeroDate(s string) bool {
	return strings.HasPrefix(s, "0000-00-00") && strings.Trim(s, "0-:. ") == ""
}

func parseZonedTime(field Field, opts Options, fallback Fallback) (any, error) {
	s, v, ok, err := rawString(fallback)
	if err != nil || !ok {
		return v, err
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(opts.location()), nil
		}
	}
	// The Data API renders timestamptz without an offset, always in UTC.
	t, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("column %s: invalid %s value %q: %w", field.Name, field.Type, s, err)
	}
	return t.In(opts.location()), nil
}

func parseDecimal(field Field, opts Options, fallback Fallback) (any, error) {
	s, v, ok, err := rawString(fallback)
	if err != nil || !ok {
		return v, err
	}
	if !opts.DecimalNumbers {
		return s, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: invalid %s value %q: %w", field.Name, field.Type, s, err)
	}
	return f, nil
}

func parseJSON(_ Field, _ Options, fallback Fallback) (any, error) {
	s, v, ok, err := rawString(fallback)
	if err != nil || !ok {
		return v, err
	}
	if !json.Valid([]byte(s)) {
		return s, nil
	}
	return json.RawMessage(s), nil
}

func parseUUID(field Field, _ Options, fallback Fallback) (any, error) {
	s, v, ok, err := rawString(fallback)
	if err != nil || !ok {
		return v, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("column %s: invalid uuid %q: %w", field.Name, s, err)
	}
	return id, nil
}

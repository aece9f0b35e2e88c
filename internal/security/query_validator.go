package security

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyQuery      = errors.New("empty query")
	ErrMultipleQueries = errors.New("multi-statement queries are not allowed")
	ErrNotSelect       = errors.New("only SELECT queries are allowed")
	ErrForbiddenWord   = errors.New("forbidden keyword detected")
	ErrSystemSchema    = errors.New("access to system schema blocked")
)

// Keywords that write, change privileges or leave the read-only statement.
var forbiddenWords = []string{
	"DELETE", "DROP", "INSERT", "UPDATE", "ALTER", "TRUNCATE", "GRANT", "REVOKE",
	"CREATE", "REPLACE", "CALL", "DO", "HANDLER", "LOAD", "MERGE", "COPY", "INTO",
	"LOCK", "SET", "EXECUTE",
}

var systemSchemas = map[string][]string{
	"mysql":    {"INFORMATION_SCHEMA", "MYSQL", "PERFORMANCE_SCHEMA", "SYS"},
	"postgres": {"INFORMATION_SCHEMA", "PG_CATALOG"},
}

// ValidateQuery accepts only a single read-only SELECT (or WITH ... SELECT)
// statement that stays out of the dialect's system schemas.
func ValidateQuery(dialect, query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if q == "" {
		return ErrEmptyQuery
	}
	if strings.Contains(q, ";") {
		return ErrMultipleQueries
	}

	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return ErrNotSelect
	}

	for _, word := range forbiddenWords {
		if containsWord(upper, word) {
			return fmt.Errorf("%w: %s", ErrForbiddenWord, word)
		}
	}

	schemas, ok := systemSchemas[dialect]
	if !ok {
		schemas = systemSchemas["mysql"]
	}
	for _, schema := range schemas {
		if containsWord(upper, schema) {
			return fmt.Errorf("%w: %s", ErrSystemSchema, schema)
		}
	}
	return nil
}

// containsWord reports whether word occurs in s delimited by SQL boundaries,
// so DELETE matches but IS_DELETED does not. s must be upper case.
func containsWord(s, word string) bool {
	for idx := 0; idx < len(s); {
		i := strings.Index(s[idx:], word)
		if i == -1 {
			return false
		}
		start := idx + i
		end := start + len(word)
		if (start == 0 || isBoundary(s[start-1])) && (end == len(s) || isBoundary(s[end])) {
			return true
		}
		idx = start + 1
	}
	return false
}

func isBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '(', ')', ',', '=', '<', '>', '`', '.', '"', '[', ']', '/', '*':
		return true
	}
	return false
}

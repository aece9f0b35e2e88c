package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		query   string
		want    error
	}{
		{name: "select", dialect: "mysql", query: "SELECT id, deleted_at FROM users", want: nil},
		{name: "trailing semicolon", dialect: "mysql", query: "select 1;", want: nil},
		{name: "cte", dialect: "postgres", query: "WITH x AS (SELECT 1) SELECT * FROM x", want: nil},
		{name: "empty", dialect: "mysql", query: "  ", want: ErrEmptyQuery},
		{name: "stacked", dialect: "mysql", query: "SELECT 1; DROP TABLE users", want: ErrMultipleQueries},
		{name: "update", dialect: "mysql", query: "UPDATE users SET a = 1", want: ErrNotSelect},
		{name: "select into", dialect: "postgres", query: "SELECT * INTO copy FROM users", want: ErrForbiddenWord},
		{name: "comment smuggling", dialect: "mysql", query: "SELECT 1 FROM t WHERE 1=1 /**/DELETE/**/", want: ErrForbiddenWord},
		{name: "mysql schema", dialect: "mysql", query: "SELECT * FROM mysql.user", want: ErrSystemSchema},
		{name: "pg catalog", dialect: "postgres", query: "SELECT * FROM pg_catalog.pg_roles", want: ErrSystemSchema},
		{name: "pg allows mysql word", dialect: "postgres", query: "SELECT mysql FROM t", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.dialect, tt.query)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

package report

import (
	"strconv"
	"strings"

	"glreport/internal/core"
)

// Dialect adapts bound parameters to a SQL driver.
type Dialect interface {
	Placeholder(n int) string
	Arg(v any) any
}

type sqliteDialect struct{}

func (sqliteDialect) Placeholder(int) string { return "?" }

// Dates are stored as YYYY-MM-DD text in SQLite.
func (sqliteDialect) Arg(v any) any {
	switch x := v.(type) {
	case core.Date:
		return x.String()
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return v
}

type postgresDialect struct{}

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) Arg(v any) any {
	switch x := v.(type) {
	case core.Date:
		return x.Time
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return v
}

var (
	SQLite   Dialect = sqliteDialect{}
	Postgres Dialect = postgresDialect{}
)

// SQLBuilder renders predicates into a WHERE clause, collecting the bound
// arguments in placeholder order.
type SQLBuilder struct {
	dialect Dialect
	alias   string
	args    []any
}

// NewSQLBuilder creates a builder. alias prefixes column names when set.
func NewSQLBuilder(d Dialect, alias string) *SQLBuilder {
	return &SQLBuilder{dialect: d, alias: alias}
}

// Bind records v as the next argument and returns its placeholder.
func (b *SQLBuilder) Bind(v any) string {
	b.args = append(b.args, b.dialect.Arg(v))
	return b.dialect.Placeholder(len(b.args))
}

func (b *SQLBuilder) Column(f Field) string {
	if b.alias == "" {
		return string(f)
	}
	return b.alias + "." + string(f)
}

// Where joins conds with AND. No conditions renders "1=1".
func (b *SQLBuilder) Where(conds []Predicate) string {
	if len(conds) == 0 {
		return "1=1"
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.Render(b)
	}
	return strings.Join(parts, " AND ")
}

func (b *SQLBuilder) Args() []any {
	return b.args
}

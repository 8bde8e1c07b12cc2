package results

import (
	"fmt"
	"strings"
)

// Dialect selects the placeholder syntax of the backing database.
type Dialect string

const (
	// DialectSQLite uses `?` placeholders.
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres uses `$n` placeholders.
	DialectPostgres Dialect = "postgres"
)

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// predicate is one named equality filter. Values are always bound, never
// interpolated into the statement text.
type predicate struct {
	name   string
	column string
	value  any
}

// filter accumulates the predicates of one query.
type filter struct {
	preds []predicate
}

func (f *filter) add(name, column string, value any) {
	f.preds = append(f.preds, predicate{name: name, column: column, value: value})
}

// names lists the active predicates, in order, for logging and tests.
func (f *filter) names() []string {
	out := make([]string, len(f.preds))
	for i, p := range f.preds {
		out[i] = p.name
	}
	return out
}

// where renders "WHERE a = ? AND b = ?" (or "" with no predicates) together
// with the bind arguments in matching order.
func (f *filter) where(d Dialect) (string, []any) {
	if len(f.preds) == 0 {
		return "", nil
	}
	clauses := make([]string, len(f.preds))
	args := make([]any, len(f.preds))
	for i, p := range f.preds {
		clauses[i] = p.column + " = " + d.Placeholder(i+1)
		args[i] = p.value
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

const aggregateColumns = `t.system_id, b.id, b.branch, b.build_date, b.version, b.commit_hash, b.environment_tag`

// aggregateSQL collapses individual test rows to one row per
// (build, system, branch). MAX(return_code) is the worst code, so the result
// passed iff it is zero.
func aggregateSQL(where string) string {
	return `SELECT ` + aggregateColumns + `, MAX(t.return_code)
FROM test_results t
INNER JOIN builds b ON b.id = t.build_id
` + where + `
GROUP BY ` + aggregateColumns + `
ORDER BY b.build_date, b.id`
}

func testsSQL(d Dialect) string {
	return `SELECT n.name, t.return_code, t.stderr, t.runtime
FROM test_results t
INNER JOIN test_names n ON n.id = t.test_name_id
WHERE t.build_id = ` + d.Placeholder(1) + ` AND t.system_id = ` + d.Placeholder(2) + ` AND n.system_id = ` + d.Placeholder(3) + `
ORDER BY n.name`
}

func resultInfoSQL(d Dialect) string {
	return `SELECT url, uses_optional_dep, build_flavor FROM result_info WHERE system_id = ` +
		d.Placeholder(1) + ` AND build_id = ` + d.Placeholder(2)
}

func systemsSQL(where string) string {
	return `SELECT id, name, repo FROM systems ` + where + ` ORDER BY id`
}

package results

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"buildhealth/pkg/domain"
)

// SystemRow is one identity row of the systems relation.
type SystemRow struct {
	ID   int64
	Name string
	Repo string
}

// Row is one aggregate row: a system's collapsed outcome within a build.
type Row struct {
	SystemID      int64
	Build         domain.Build
	MaxReturnCode int64
}

// Passed reports whether every constituent test returned zero.
func (r Row) Passed() bool { return r.MaxReturnCode == 0 }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSystem(rs rowScanner) (SystemRow, error) {
	var (
		row  SystemRow
		repo sql.NullString
	)
	if err := rs.Scan(&row.ID, &row.Name, &repo); err != nil {
		return SystemRow{}, integrity("scan system: %v", err)
	}
	if strings.TrimSpace(row.Name) == "" {
		return SystemRow{}, integrity("system %d has an empty name", row.ID)
	}
	row.Repo = repo.String
	return row, nil
}

func scanAggregate(rs rowScanner) (Row, error) {
	var (
		row     Row
		branch  string
		date    any
		version sql.NullString
		commit  sql.NullString
		envTag  sql.NullString
		maxCode sql.NullInt64
	)
	if err := rs.Scan(&row.SystemID, &row.Build.ID, &branch, &date, &version, &commit, &envTag, &maxCode); err != nil {
		return Row{}, integrity("scan aggregate: %v", err)
	}
	b, err := domain.ParseBranch(branch)
	if err != nil {
		return Row{}, integrity("build %d: %v", row.Build.ID, err)
	}
	when, err := parseBuildDate(date)
	if err != nil {
		return Row{}, integrity("build %d: %v", row.Build.ID, err)
	}
	if !maxCode.Valid {
		return Row{}, integrity("build %d system %d: no return code", row.Build.ID, row.SystemID)
	}
	row.Build.Branch = b
	row.Build.Date = when
	if version.Valid {
		v := version.String
		row.Build.Version = &v
	}
	row.Build.CommitHash = commit.String
	row.Build.EnvironmentTag = envTag.String
	row.MaxReturnCode = maxCode.Int64
	return row, nil
}

func scanTest(rs rowScanner) (domain.Test, error) {
	var (
		t       domain.Test
		stderr  sql.NullString
		runtime sql.NullFloat64
	)
	if err := rs.Scan(&t.Name, &t.ReturnCode, &stderr, &runtime); err != nil {
		return domain.Test{}, integrity("scan test: %v", err)
	}
	t.Stderr = stderr.String
	t.Runtime = runtime.Float64
	return t, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseBuildDate accepts the shapes drivers hand back for a DATE column:
// time.Time from pgx, and text or time.Time from sqlite.
func parseBuildDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d.UTC(), nil
	case string:
		return parseDateString(d)
	case []byte:
		return parseDateString(string(d))
	case nil:
		return time.Time{}, fmt.Errorf("missing build date")
	default:
		return time.Time{}, fmt.Errorf("unsupported build date type %T", v)
	}
}

func parseDateString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable build date %q", s)
}

func integrity(format string, args ...any) error {
	return &domain.IntegrityError{Detail: fmt.Sprintf(format, args...)}
}

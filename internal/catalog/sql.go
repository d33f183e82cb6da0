package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads the catalog from a database table. Rows are read in
// the order of OrderColumn.
type SQLSource struct {
	Driver      string
	DSN         string
	Table       string
	OrderColumn string
	Columns     Columns
}

// NewSQLiteSource reads from a SQLite file; rows default to rowid order
func NewSQLiteSource(path, table, orderColumn string, cols Columns) (*SQLSource, error) {
	if orderColumn == "" {
		orderColumn = "rowid"
	}
	return newSQLSource("sqlite", path, table, orderColumn, cols)
}

// NewPostgresSource reads from PostgreSQL; rows default to id order
func NewPostgresSource(dsn, table, orderColumn string, cols Columns) (*SQLSource, error) {
	if orderColumn == "" {
		orderColumn = "id"
	}
	return newSQLSource("pgx", dsn, table, orderColumn, cols)
}

func newSQLSource(driver, dsn, table, orderColumn string, cols Columns) (*SQLSource, error) {
	for _, name := range []string{table, orderColumn, cols.Name} {
		if !identifier.MatchString(name) {
			return nil, fmt.Errorf("invalid sql identifier %q", name)
		}
	}
	if cols.Tags != "" && !identifier.MatchString(cols.Tags) {
		return nil, fmt.Errorf("invalid sql identifier %q", cols.Tags)
	}
	return &SQLSource{
		Driver:      driver,
		DSN:         dsn,
		Table:       table,
		OrderColumn: orderColumn,
		Columns:     cols,
	}, nil
}

func (s *SQLSource) String() string {
	return fmt.Sprintf("%s:%s", s.Driver, s.Table)
}

func (s *SQLSource) Rows(ctx context.Context) ([]Row, error) {
	db, err := sql.Open(s.Driver, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Driver, err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", s.Driver, err)
	}

	// identifiers are validated in newSQLSource
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s`, s.Table, s.OrderColumn)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	nameIdx, tagsIdx := -1, -1
	for i, c := range columns {
		switch c {
		case s.Columns.Name:
			nameIdx = i
		case s.Columns.Tags:
			tagsIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("missing name column %q", s.Columns.Name)
	}

	var out []Row
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := Row{Attributes: make(map[string]string)}
		for i, v := range values {
			text := stringify(v)
			switch i {
			case nameIdx:
				row.Name = text
			case tagsIdx:
				row.Tags = text
			default:
				row.Attributes[columns[i]] = text
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// stringify renders a scanned column; NULL becomes the empty string
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

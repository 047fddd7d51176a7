package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-varsum/internal/table"
)

// WriteTable replaces the DuckDB table name with the contents of t using the
// Appender API.
func (s *Store) WriteTable(name string, t *table.Table) error {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = quoteIdent(c) + " VARCHAR"
	}

	if _, err := s.db.Exec("DROP TABLE IF EXISTS " + quoteIdent(name)); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	if t.Len() == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", name)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	values := make([]driver.Value, len(t.Columns))
	for r, row := range t.Rows {
		for i, v := range row {
			if v == "" {
				values[i] = nil
			} else {
				values[i] = v
			}
		}
		if err := appender.AppendRow(values...); err != nil {
			return fmt.Errorf("append row %d: %w", r+1, err)
		}
	}

	return appender.Flush()
}

// CountRows returns the number of rows in the named table.
func (s *Store) CountRows(name string) (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM " + quoteIdent(name)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s rows: %w", name, err)
	}
	return count, nil
}

// Lookup returns the rows of the named table whose keyColumn equals key, as
// column -> value maps. NULL values are returned as empty strings.
func (s *Store) Lookup(name, keyColumn, key string) ([]map[string]string, error) {
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", quoteIdent(name), quoteIdent(keyColumn)),
		key)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var results []map[string]string
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}

		m := make(map[string]string, len(columns))
		for i, c := range columns {
			m[c] = values[i].String
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", name, err)
	}
	return results, nil
}

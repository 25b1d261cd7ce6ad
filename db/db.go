// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types.
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Dialect holds the SQL fragments that differ between Postgres and SQLite.
type Dialect struct {
	Name string
}

// MonthKey formats a timestamp column as YYYY-MM in UTC.
func (d Dialect) MonthKey(col string) string {
	if d.Name == TypePostgres {
		return fmt.Sprintf("TO_CHAR(%s AT TIME ZONE 'UTC', 'YYYY-MM')", col)
	}
	return fmt.Sprintf("strftime('%%Y-%%m', %s)", col)
}

// DayOfMonth extracts the UTC day of month of a timestamp column as an integer.
func (d Dialect) DayOfMonth(col string) string {
	if d.Name == TypePostgres {
		return fmt.Sprintf("EXTRACT(DAY FROM %s AT TIME ZONE 'UTC')::integer", col)
	}
	return fmt.Sprintf("CAST(strftime('%%d', %s) AS INTEGER)", col)
}

// RowSecurity reports whether the database enforces tenant policies itself.
func (d Dialect) RowSecurity() bool {
	return d.Name == TypePostgres
}

// Open connects to the database and verifies the connection.
func Open(dbType, url string) (*sql.DB, Dialect, error) {
	var driver, dsn string
	switch dbType {
	case TypePostgres:
		driver, dsn = "postgres", url
	case TypeSQLite, "":
		dbType = TypeSQLite
		driver, dsn = "sqlite", sqliteDSN(url)
	default:
		return nil, Dialect{}, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("open %s: %w", dbType, err)
	}

	if dbType == TypeSQLite {
		// One writer at a time; also keeps ":memory:" databases on a single connection.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, Dialect{}, fmt.Errorf("ping %s: %w", dbType, err)
	}

	return conn, Dialect{Name: dbType}, nil
}

func sqliteDSN(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// IsUniqueViolation reports duplicate-key errors from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

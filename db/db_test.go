// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_SQLiteIdempotent(t *testing.T) {
	conn, d, err := Open(TypeSQLite, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn, d))
	require.NoError(t, Migrate(ctx, conn, d))

	var applied int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)

	for _, table := range []string{"tenant", "users", "session", "verification_token", "individuo", "familia", "composicao_familiar", "atendimento", "anexo"} {
		var n int
		err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_UnknownType(t *testing.T) {
	_, _, err := Open("oracle", "x")
	assert.Error(t, err)
}

func TestDialectFragments(t *testing.T) {
	pg := Dialect{Name: TypePostgres}
	lite := Dialect{Name: TypeSQLite}

	assert.Equal(t, "TO_CHAR(a.data AT TIME ZONE 'UTC', 'YYYY-MM')", pg.MonthKey("a.data"))
	assert.Equal(t, "strftime('%Y-%m', a.data)", lite.MonthKey("a.data"))
	assert.Equal(t, "CAST(strftime('%d', data) AS INTEGER)", lite.DayOfMonth("data"))
	assert.True(t, pg.RowSecurity())
	assert.False(t, lite.RowSecurity())
}

func TestSplitStatements(t *testing.T) {
	body := `-- comment
CREATE TABLE a (id TEXT);

CREATE POLICY p ON a
    USING (true);
`
	stmts := splitStatements(body)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id TEXT)", stmts[0])
	assert.Contains(t, stmts[1], "USING (true)")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))

	conn, d, err := Open(TypeSQLite, ":memory:")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, Migrate(context.Background(), conn, d))

	_, err = conn.Exec("INSERT INTO tenant (id, name) VALUES ('t1', 'A')")
	require.NoError(t, err)
	_, err = conn.Exec("INSERT INTO tenant (id, name) VALUES ('t1', 'B')")
	assert.True(t, IsUniqueViolation(err), "got %v", err)
}

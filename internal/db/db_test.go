package db

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db, err := OpenSQLite("file:schema_idem?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	require.NoError(t, EnsureSchema(ctx, db, SQLite, false, zap.NewNop()))
	require.NoError(t, EnsureSchema(ctx, db, SQLite, false, zap.NewNop()))

	for _, table := range []string{"usuarios", "credenciales_ministeriales", "credenciales_capellania", "solicitudes_credenciales", "audit_logs"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestEnsureSchemaSkip(t *testing.T) {
	db, err := OpenSQLite("file:schema_skip?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, EnsureSchema(context.Background(), db, SQLite, true, zap.NewNop()))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table'`).Scan(&n))
	assert.Zero(t, n)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, IsDuplicateKey(&mysql.MySQLError{Number: 1064}))
	assert.True(t, IsDuplicateKey(errors.New("constraint failed: UNIQUE constraint failed: credenciales_ministeriales.documento (2067)")))
}

func TestSchemaMySQLUsesInnoDB(t *testing.T) {
	for _, stmt := range schema(MySQL) {
		if len(stmt) > 12 && stmt[:12] == "CREATE TABLE" {
			assert.Contains(t, stmt, "ENGINE=InnoDB")
		} else {
			assert.NotContains(t, stmt, "IF NOT EXISTS")
		}
	}
}

// Package dbtest abre bases SQLite en memoria con el esquema aplicado.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appdb "github.com/yourorg/credenciales/internal/db"
)

// Open devuelve una base aislada por prueba; se cierra con t.Cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	db, err := appdb.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := appdb.EnsureSchema(context.Background(), db, appdb.SQLite, false, zap.NewNop()); err != nil {
		_ = db.Close()
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

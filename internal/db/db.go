package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/yourorg/credenciales/internal/config"
)

// Dialect identifica el motor SQL. Las consultas usan placeholders "?"
// válidos en ambos; solo el DDL cambia.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// Connect abre la base configurada. MySQL/MariaDB en producción, SQLite
// embebido para desarrollo y pruebas.
func Connect(cfg config.DBConfig) (*sql.DB, Dialect, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := OpenSQLite(cfg.Path)
		return db, SQLite, err
	default:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Pass
		mc.Net = "tcp"
		mc.Addr = cfg.Host + ":" + cfg.Port
		mc.DBName = cfg.Name
		mc.ParseTime = true
		// RowsAffected cuenta filas encontradas, no solo modificadas.
		mc.ClientFoundRows = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		db, err := sql.Open("mysql", mc.FormatDSN())
		if err != nil {
			return nil, MySQL, fmt.Errorf("open mysql: %w", err)
		}
		return db, MySQL, nil
	}
}

// OpenSQLite abre (o crea) una base SQLite. path puede ser un DSN
// "file:...?mode=memory&cache=shared" para pruebas.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + path
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// EnsureSchema creates required tables if not exist.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect, skip bool, log *zap.Logger) error {
	if skip {
		log.Info("EnsureSchema: skipped (DB_SKIP_SCHEMA)")
		return nil
	}

	for _, stmt := range schema(dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func schema(d Dialect) []string {
	engine := ""
	if d == MySQL {
		engine = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}

	credential := func(table, tipoColumn string) string {
		return `CREATE TABLE IF NOT EXISTS ` + table + ` (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			documento VARCHAR(20) NOT NULL UNIQUE,
			nombre VARCHAR(100) NOT NULL,
			apellido VARCHAR(100) NOT NULL,
			nacionalidad VARCHAR(80) NOT NULL,
			fecha_nacimiento DATE NOT NULL,
			foto_url VARCHAR(500) NULL,
			` + tipoColumn + ` VARCHAR(20) NOT NULL,
			fecha_vencimiento DATE NOT NULL,
			invitado_id VARCHAR(36) NULL,
			busqueda VARCHAR(300) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)` + engine
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS usuarios (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			nombre VARCHAR(150) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			rol VARCHAR(20) NOT NULL,
			created_at DATETIME NOT NULL
		)` + engine,
		credential("credenciales_ministeriales", "tipo_pastor"),
		credential("credenciales_capellania", "tipo_capellan"),
		`CREATE TABLE IF NOT EXISTS solicitudes_credenciales (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			tipo VARCHAR(20) NOT NULL,
			nombre VARCHAR(100) NOT NULL,
			apellido VARCHAR(100) NOT NULL,
			dni VARCHAR(20) NOT NULL,
			nacionalidad VARCHAR(80) NOT NULL,
			fecha_nacimiento DATE NOT NULL,
			invitado_id VARCHAR(36) NULL,
			estado VARCHAR(20) NOT NULL,
			observaciones TEXT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)` + engine,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			entity_type VARCHAR(60) NOT NULL,
			entity_id VARCHAR(64) NOT NULL,
			action VARCHAR(30) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			user_email VARCHAR(255) NULL,
			changes TEXT NULL,
			metadata TEXT NULL,
			ip_address VARCHAR(64) NULL,
			created_at DATETIME NOT NULL
		)` + engine,
	}

	indexes := []string{
		`CREATE INDEX idx_audit_entity ON audit_logs(entity_type, entity_id)`,
		`CREATE INDEX idx_solicitudes_dni ON solicitudes_credenciales(dni, tipo, estado)`,
		`CREATE INDEX idx_solicitudes_invitado ON solicitudes_credenciales(invitado_id)`,
		`CREATE INDEX idx_cm_vencimiento ON credenciales_ministeriales(fecha_vencimiento)`,
		`CREATE INDEX idx_cc_vencimiento ON credenciales_capellania(fecha_vencimiento)`,
	}
	if d == SQLite {
		for i, idx := range indexes {
			indexes[i] = strings.Replace(idx, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1)
		}
	}
	return append(stmts, indexes...)
}

// isDuplicateIndex reconoce el error de MySQL al recrear un índice existente.
func isDuplicateIndex(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1061
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key name")
}

// IsDuplicateKey reconoce la violación de un índice UNIQUE en ambos motores.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

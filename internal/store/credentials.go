package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	appdb "github.com/yourorg/credenciales/internal/db"
	"github.com/yourorg/credenciales/internal/models"
)

// credentialTable describe la tabla física de cada tipo de credencial. Las
// dos tablas tienen la misma forma salvo la columna del tipo.
type credentialTable struct {
	name       string
	tipoColumn string
}

var credentialTables = map[models.CredentialKind]credentialTable{
	models.KindMinisterial: {name: "credenciales_ministeriales", tipoColumn: "tipo_pastor"},
	models.KindCapellania:  {name: "credenciales_capellania", tipoColumn: "tipo_capellan"},
}

func tableFor(kind models.CredentialKind) (credentialTable, error) {
	t, ok := credentialTables[kind]
	if !ok {
		return credentialTable{}, fmt.Errorf("store: unknown credential kind %q", kind)
	}
	return t, nil
}

func (t credentialTable) columns() string {
	return `id, documento, nombre, apellido, nacionalidad, fecha_nacimiento, foto_url, ` +
		t.tipoColumn + `, fecha_vencimiento, invitado_id, created_at, updated_at`
}

// CredentialFilter filtra el listado de credenciales.
type CredentialFilter struct {
	Query string
	// VenceAntes limita a credenciales que vencen antes de esa fecha.
	VenceAntes models.Date
	Limit      int
	Offset     int
}

// CredentialStore persiste credenciales ministeriales y de capellanía.
type CredentialStore struct {
	db *sql.DB
}

func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Insert guarda una credencial nueva. Devuelve ErrDuplicate si el documento
// ya existe en la tabla de su tipo.
func (s *CredentialStore) Insert(ctx context.Context, c models.Credential) error {
	t, err := tableFor(c.Kind)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + t.name + ` (` + t.columns() + `, busqueda)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		c.ID,
		c.Documento,
		c.Nombre,
		c.Apellido,
		c.Nacionalidad,
		c.FechaNacimiento,
		nullString(c.FotoURL),
		c.Tipo,
		c.FechaVencimiento,
		nullStringPtr(c.InvitadoID),
		c.CreatedAt.UTC(),
		c.UpdatedAt.UTC(),
		searchKey(c.Apellido, c.Nombre, c.Documento),
	)
	if appdb.IsDuplicateKey(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

// Update reescribe los campos mutables. documento, id y created_at nunca se
// tocan aquí.
func (s *CredentialStore) Update(ctx context.Context, c models.Credential) error {
	t, err := tableFor(c.Kind)
	if err != nil {
		return err
	}
	query := `UPDATE ` + t.name + ` SET
			nombre = ?, apellido = ?, nacionalidad = ?, fecha_nacimiento = ?,
			foto_url = ?, ` + t.tipoColumn + ` = ?, fecha_vencimiento = ?,
			invitado_id = ?, busqueda = ?, updated_at = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		c.Nombre,
		c.Apellido,
		c.Nacionalidad,
		c.FechaNacimiento,
		nullString(c.FotoURL),
		c.Tipo,
		c.FechaVencimiento,
		nullStringPtr(c.InvitadoID),
		searchKey(c.Apellido, c.Nombre, c.Documento),
		c.UpdatedAt.UTC(),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CredentialStore) Get(ctx context.Context, kind models.CredentialKind, id string) (models.Credential, error) {
	return s.getBy(ctx, kind, "id", id)
}

func (s *CredentialStore) GetByDocumento(ctx context.Context, kind models.CredentialKind, documento string) (models.Credential, error) {
	return s.getBy(ctx, kind, "documento", documento)
}

func (s *CredentialStore) getBy(ctx context.Context, kind models.CredentialKind, column, value string) (models.Credential, error) {
	t, err := tableFor(kind)
	if err != nil {
		return models.Credential{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+t.columns()+` FROM `+t.name+` WHERE `+column+` = ?`, value)
	c, err := scanCredential(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, ErrNotFound
	}
	if err != nil {
		return models.Credential{}, fmt.Errorf("select %s: %w", t.name, err)
	}
	return c, nil
}

// ExistsDocumento indica si el documento ya está registrado para kind.
func (s *CredentialStore) ExistsDocumento(ctx context.Context, kind models.CredentialKind, documento string) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM `+t.name+` WHERE documento = ?`, documento).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select %s: %w", t.name, err)
	}
	return true, nil
}

// List devuelve una página de credenciales ordenada por apellido y nombre,
// junto con el total que coincide con el filtro.
func (s *CredentialStore) List(ctx context.Context, kind models.CredentialKind, f CredentialFilter) ([]models.Credential, int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, 0, err
	}

	where := []string{}
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, `busqueda LIKE ? ESCAPE '!'`)
		args = append(args, likePattern(q))
	}
	if !f.VenceAntes.IsZero() {
		where = append(where, `fecha_vencimiento < ?`)
		args = append(args, f.VenceAntes)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.name+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.name, err)
	}

	query := `SELECT ` + t.columns() + ` FROM ` + t.name + clause +
		` ORDER BY busqueda, id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rows.Close()

	items, err := scanCredentials(rows, kind)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ExpiringBetween devuelve las credenciales cuyo vencimiento cae en
// [from, to], ordenadas por fecha de vencimiento.
func (s *CredentialStore) ExpiringBetween(ctx context.Context, kind models.CredentialKind, from, to models.Date) ([]models.Credential, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+t.columns()+` FROM `+t.name+`
		WHERE fecha_vencimiento >= ? AND fecha_vencimiento <= ?
		ORDER BY fecha_vencimiento, busqueda`, from, to)
	if err != nil {
		return nil, fmt.Errorf("expiring %s: %w", t.name, err)
	}
	defer rows.Close()
	return scanCredentials(rows, kind)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(row scanner, kind models.CredentialKind) (models.Credential, error) {
	var (
		c        models.Credential
		foto     sql.NullString
		invitado sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.Documento,
		&c.Nombre,
		&c.Apellido,
		&c.Nacionalidad,
		&c.FechaNacimiento,
		&foto,
		&c.Tipo,
		&c.FechaVencimiento,
		&invitado,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return models.Credential{}, err
	}
	c.Kind = kind
	c.FotoURL = foto.String
	if invitado.Valid {
		v := invitado.String
		c.InvitadoID = &v
	}
	return c, nil
}

func scanCredentials(rows *sql.Rows, kind models.CredentialKind) ([]models.Credential, error) {
	items := []models.Credential{}
	for rows.Next() {
		c, err := scanCredential(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/yourorg/credenciales/internal/models"
)

const solicitudColumns = `id, tipo, nombre, apellido, dni, nacionalidad, fecha_nacimiento,
	invitado_id, estado, observaciones, created_at, updated_at`

// SolicitudFilter filtra el listado de solicitudes.
type SolicitudFilter struct {
	Estado     models.EstadoSolicitud
	Tipo       models.CredentialKind
	InvitadoID string
	DNI        string
}

// SolicitudStore persiste las solicitudes de credencial de invitados.
type SolicitudStore struct {
	db *sql.DB
}

func NewSolicitudStore(db *sql.DB) *SolicitudStore {
	return &SolicitudStore{db: db}
}

func (s *SolicitudStore) Insert(ctx context.Context, sol models.SolicitudCredencial) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO solicitudes_credenciales (`+solicitudColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sol.ID,
		string(sol.Tipo),
		sol.Nombre,
		sol.Apellido,
		sol.DNI,
		sol.Nacionalidad,
		sol.FechaNacimiento,
		nullStringPtr(sol.InvitadoID),
		string(sol.Estado),
		nullString(sol.Observaciones),
		sol.CreatedAt.UTC(),
		sol.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert solicitudes_credenciales: %w", err)
	}
	return nil
}

// UpdateEstado cambia el estado y las observaciones de una solicitud.
func (s *SolicitudStore) UpdateEstado(ctx context.Context, sol models.SolicitudCredencial) error {
	res, err := s.db.ExecContext(ctx, `UPDATE solicitudes_credenciales
		SET estado = ?, observaciones = ?, updated_at = ? WHERE id = ?`,
		string(sol.Estado), nullString(sol.Observaciones), sol.UpdatedAt.UTC(), sol.ID)
	if err != nil {
		return fmt.Errorf("update solicitudes_credenciales: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SolicitudStore) Get(ctx context.Context, id string) (models.SolicitudCredencial, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+solicitudColumns+` FROM solicitudes_credenciales WHERE id = ?`, id)
	sol, err := scanSolicitud(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SolicitudCredencial{}, ErrNotFound
	}
	if err != nil {
		return models.SolicitudCredencial{}, fmt.Errorf("select solicitudes_credenciales: %w", err)
	}
	return sol, nil
}

// List devuelve las solicitudes más recientes primero.
func (s *SolicitudStore) List(ctx context.Context, f SolicitudFilter) ([]models.SolicitudCredencial, error) {
	where := []string{}
	args := []any{}
	if f.Estado != "" {
		where = append(where, "estado = ?")
		args = append(args, string(f.Estado))
	}
	if f.Tipo != "" {
		where = append(where, "tipo = ?")
		args = append(args, string(f.Tipo))
	}
	if f.InvitadoID != "" {
		where = append(where, "invitado_id = ?")
		args = append(args, f.InvitadoID)
	}
	if f.DNI != "" {
		where = append(where, "dni = ?")
		args = append(args, f.DNI)
	}
	query := `SELECT ` + solicitudColumns + ` FROM solicitudes_credenciales`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list solicitudes_credenciales: %w", err)
	}
	defer rows.Close()

	items := []models.SolicitudCredencial{}
	for rows.Next() {
		sol, err := scanSolicitud(rows)
		if err != nil {
			return nil, fmt.Errorf("scan solicitud: %w", err)
		}
		items = append(items, sol)
	}
	return items, rows.Err()
}

func scanSolicitud(row scanner) (models.SolicitudCredencial, error) {
	var (
		sol      models.SolicitudCredencial
		tipo     string
		estado   string
		invitado sql.NullString
		obs      sql.NullString
	)
	err := row.Scan(
		&sol.ID,
		&tipo,
		&sol.Nombre,
		&sol.Apellido,
		&sol.DNI,
		&sol.Nacionalidad,
		&sol.FechaNacimiento,
		&invitado,
		&estado,
		&obs,
		&sol.CreatedAt,
		&sol.UpdatedAt,
	)
	if err != nil {
		return models.SolicitudCredencial{}, err
	}
	sol.Tipo = models.CredentialKind(tipo)
	sol.Estado = models.EstadoSolicitud(estado)
	sol.Observaciones = obs.String
	if invitado.Valid {
		v := invitado.String
		sol.InvitadoID = &v
	}
	return sol, nil
}

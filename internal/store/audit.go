package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourorg/credenciales/internal/models"
)

// AuditFilter filtra la bitácora.
type AuditFilter struct {
	EntityType string
	EntityID   string
	UserID     string
	Action     models.AuditAction
	Limit      int
	Offset     int
}

// AuditStore es la bitácora de auditoría: solo inserta y consulta.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Insert(ctx context.Context, e models.AuditLog) error {
	changes, err := marshalNullable(e.Changes, len(e.Changes) == 0)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	metadata, err := marshalNullable(e.Metadata, len(e.Metadata) == 0)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO audit_logs
		(id, entity_type, entity_id, action, user_id, user_email, changes, metadata, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.EntityType,
		e.EntityID,
		string(e.Action),
		e.UserID,
		nullString(e.UserEmail),
		changes,
		metadata,
		nullString(e.IPAddress),
		e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit_logs: %w", err)
	}
	return nil
}

// List devuelve entradas de la más reciente a la más antigua.
func (s *AuditStore) List(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	where := []string{}
	args := []any{}
	if f.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, f.EntityType)
	}
	if f.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, f.EntityID)
	}
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(f.Action))
	}
	query := `SELECT id, entity_type, entity_id, action, user_id, user_email, changes, metadata, ip_address, created_at
		FROM audit_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit_logs: %w", err)
	}
	defer rows.Close()

	items := []models.AuditLog{}
	for rows.Next() {
		var (
			e        models.AuditLog
			action   string
			email    sql.NullString
			changes  sql.NullString
			metadata sql.NullString
			ip       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &action, &e.UserID, &email, &changes, &metadata, &ip, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit_logs: %w", err)
		}
		e.Action = models.AuditAction(action)
		e.UserEmail = email.String
		e.IPAddress = ip.String
		if changes.Valid && changes.String != "" {
			if err := json.Unmarshal([]byte(changes.String), &e.Changes); err != nil {
				return nil, fmt.Errorf("decode changes %s: %w", e.ID, err)
			}
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata %s: %w", e.ID, err)
			}
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func marshalNullable(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

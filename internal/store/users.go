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

// UserStore persiste usuarios del panel e invitados.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Insert(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO usuarios (id, email, nombre, password_hash, rol, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.Nombre, u.PasswordHash, string(u.Rol), u.CreatedAt.UTC())
	if appdb.IsDuplicateKey(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert usuarios: %w", err)
	}
	return nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *UserStore) Get(ctx context.Context, id string) (models.User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *UserStore) getBy(ctx context.Context, column, value string) (models.User, error) {
	var (
		u   models.User
		rol string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, email, nombre, password_hash, rol, created_at
		FROM usuarios WHERE `+column+` = ?`, value).
		Scan(&u.ID, &u.Email, &u.Nombre, &u.PasswordHash, &rol, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("select usuarios: %w", err)
	}
	u.Rol = models.Role(rol)
	return u, nil
}

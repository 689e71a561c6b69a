package audit

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/store"
)

// Actor identifica a quien ejecuta una operación mutante.
type Actor struct {
	UserID    string
	UserEmail string
	IPAddress string
}

type actorKey struct{}

// WithActor adjunta el actor al contexto de la petición.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom devuelve el actor del contexto. ok es false si no hay actor o no
// tiene UserID; en ese caso no se registra auditoría.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.UserID != ""
}

// Entry es lo que un servicio pide registrar.
type Entry struct {
	EntityType string
	EntityID   string
	Action     models.AuditAction
	Changes    []models.AuditChange
	Metadata   map[string]any
}

type repository interface {
	Insert(ctx context.Context, e models.AuditLog) error
	List(ctx context.Context, f store.AuditFilter) ([]models.AuditLog, error)
}

// Service registra y consulta la bitácora.
type Service struct {
	repo  repository
	log   *zap.Logger
	clock func() time.Time
}

func NewService(repo repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log, clock: time.Now}
}

// Record agrega una entrada con el actor del contexto. Sin actor no hace nada.
func (s *Service) Record(ctx context.Context, e Entry) error {
	actor, ok := ActorFrom(ctx)
	if !ok {
		return nil
	}
	if !e.Action.Valid() {
		return fmt.Errorf("audit: unknown action %q", e.Action)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("audit: new id: %w", err)
	}
	entry := models.AuditLog{
		ID:         id.String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		UserID:     actor.UserID,
		UserEmail:  actor.UserEmail,
		Changes:    e.Changes,
		Metadata:   e.Metadata,
		IPAddress:  actor.IPAddress,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return err
	}
	s.log.Debug("audit recorded",
		zap.String("entity", e.EntityType),
		zap.String("id", e.EntityID),
		zap.String("action", string(e.Action)),
		zap.Int("changes", len(e.Changes)))
	return nil
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// List consulta la bitácora, de la entrada más reciente a la más antigua.
func (s *Service) List(ctx context.Context, f store.AuditFilter) ([]models.AuditLog, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// Diff compara dos mapas de atributos y devuelve solo los campos que
// cambiaron, ordenados por nombre.
func Diff(before, after map[string]any) []models.AuditChange {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	changes := []models.AuditChange{}
	for _, k := range names {
		oldV, newV := before[k], after[k]
		if reflect.DeepEqual(oldV, newV) {
			continue
		}
		changes = append(changes, models.AuditChange{Field: k, OldValue: oldV, NewValue: newV})
	}
	return changes
}

// Snapshot convierte los atributos en una lista de cambios desde vacío,
// usada por CREATE.
func Snapshot(fields map[string]any) []models.AuditChange {
	return Diff(map[string]any{}, fields)
}

package credential

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/audit"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/notify"
	"github.com/yourorg/credenciales/internal/store"
	"github.com/yourorg/credenciales/internal/validation"
)

type (
	CreateInput = models.CredentialCreateRequest
	UpdateInput = models.CredentialUpdateRequest
)

type repository interface {
	Insert(ctx context.Context, c models.Credential) error
	Update(ctx context.Context, c models.Credential) error
	Get(ctx context.Context, kind models.CredentialKind, id string) (models.Credential, error)
	GetByDocumento(ctx context.Context, kind models.CredentialKind, documento string) (models.Credential, error)
	ExistsDocumento(ctx context.Context, kind models.CredentialKind, documento string) (bool, error)
	List(ctx context.Context, kind models.CredentialKind, f store.CredentialFilter) ([]models.Credential, int, error)
	ExpiringBetween(ctx context.Context, kind models.CredentialKind, from, to models.Date) ([]models.Credential, error)
}

type auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Service es la puerta de persistencia y validación de credenciales. No
// existe operación de borrado: una credencial emitida es permanente.
type Service struct {
	repo   repository
	audit  auditor
	notify notify.Notifier
	log    *zap.Logger
	clock  func() time.Time
}

func NewService(repo repository, aud auditor, n notify.Notifier, log *zap.Logger) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	return &Service{repo: repo, audit: aud, notify: n, log: log, clock: time.Now}
}

func (s *Service) today() models.Date { return models.DateOf(s.clock()) }

// Create valida, verifica unicidad del documento dentro del tipo, persiste y
// audita. Devuelve un error Conflict si el documento ya existe.
func (s *Service) Create(ctx context.Context, kind models.CredentialKind, in CreateInput) (models.Credential, error) {
	if !kind.Valid() {
		return models.Credential{}, apperr.New(apperr.Validation, "tipo de credencial desconocido %q", kind)
	}

	now := s.clock().UTC().Truncate(time.Second)
	c := models.Credential{
		ID:               uuid.NewString(),
		Kind:             kind,
		Documento:        validation.NormalizeDocumento(in.Documento),
		Nombre:           validation.CleanText(in.Nombre),
		Apellido:         validation.CleanText(in.Apellido),
		Nacionalidad:     validation.CleanText(in.Nacionalidad),
		FechaNacimiento:  in.FechaNacimiento,
		FotoURL:          strings.TrimSpace(in.FotoURL),
		Tipo:             strings.ToUpper(strings.TrimSpace(in.ResolveTipo(kind))),
		FechaVencimiento: in.FechaVencimiento,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.InvitadoID != nil && strings.TrimSpace(*in.InvitadoID) != "" {
		v := strings.TrimSpace(*in.InvitadoID)
		c.InvitadoID = &v
	}

	if err := validation.Credential(inputOf(c), s.today()).Err(); err != nil {
		return models.Credential{}, err
	}

	exists, err := s.repo.ExistsDocumento(ctx, kind, c.Documento)
	if err != nil {
		return models.Credential{}, apperr.Wrap(apperr.Internal, err, "")
	}
	if exists {
		return models.Credential{}, duplicateErr(c.Documento)
	}

	if err := s.repo.Insert(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Credential{}, duplicateErr(c.Documento)
		}
		return models.Credential{}, apperr.Wrap(apperr.Internal, err, "")
	}

	s.record(ctx, audit.Entry{
		EntityType: kind.EntityType(),
		EntityID:   c.ID,
		Action:     models.AuditCreate,
		Changes:    audit.Snapshot(c.Fields()),
	})
	s.notify.Publish(notify.Event{Type: notify.EventCredencialCreada, Data: c})
	s.log.Info("credencial creada",
		zap.String("kind", string(kind)), zap.String("id", c.ID), zap.String("documento", c.Documento))
	return c, nil
}

// Update aplica una edición parcial restringida por el modo. En dorso solo
// fechaVencimiento puede cambiar y los demás campos se ignoran; en frente
// se rechaza un documento distinto del registrado.
func (s *Service) Update(ctx context.Context, kind models.CredentialKind, id string, in UpdateInput, mode models.EditMode) (models.Credential, error) {
	if !kind.Valid() {
		return models.Credential{}, apperr.New(apperr.Validation, "tipo de credencial desconocido %q", kind)
	}
	if mode != models.EditFrente && mode != models.EditDorso {
		return models.Credential{}, apperr.InvalidField("modo", "debe ser frente o dorso")
	}

	current, err := s.Get(ctx, kind, id)
	if err != nil {
		return models.Credential{}, err
	}

	if mode == models.EditFrente && in.Documento != nil {
		if validation.NormalizeDocumento(*in.Documento) != current.Documento {
			return models.Credential{}, apperr.InvalidField(models.FieldDocumento, "el documento no se puede modificar")
		}
	}

	next, touched := apply(current, in, mode)
	errs := validation.Credential(inputOf(next), s.today())
	for field := range errs {
		if !touched[field] {
			delete(errs, field)
		}
	}
	if err := errs.Err(); err != nil {
		return models.Credential{}, err
	}

	changes := audit.Diff(current.Fields(), next.Fields())
	if len(changes) == 0 {
		return current, nil
	}

	next.UpdatedAt = s.clock().UTC().Truncate(time.Second)
	if err := s.repo.Update(ctx, next); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Credential{}, notFoundErr(kind, id)
		}
		return models.Credential{}, apperr.Wrap(apperr.Internal, err, "")
	}

	s.record(ctx, audit.Entry{
		EntityType: kind.EntityType(),
		EntityID:   next.ID,
		Action:     models.AuditUpdate,
		Changes:    changes,
		Metadata:   map[string]any{"modo": string(mode)},
	})
	s.notify.Publish(notify.Event{Type: notify.EventCredencialActualizada, Data: next})
	s.log.Info("credencial actualizada",
		zap.String("kind", string(kind)), zap.String("id", next.ID),
		zap.String("modo", string(mode)), zap.Int("cambios", len(changes)))
	return next, nil
}

// apply copia en c los campos de in que el modo permite. touched usa los
// nombres de campo de validación.
func apply(c models.Credential, in UpdateInput, mode models.EditMode) (models.Credential, map[string]bool) {
	touched := map[string]bool{}
	setString := func(field string, dst *string, src *string, clean func(string) string) {
		if src == nil || !mode.Allows(field) {
			return
		}
		*dst = clean(*src)
		touched[field] = true
	}
	setString(models.FieldNombre, &c.Nombre, in.Nombre, validation.CleanText)
	setString(models.FieldApellido, &c.Apellido, in.Apellido, validation.CleanText)
	setString(models.FieldNacionalidad, &c.Nacionalidad, in.Nacionalidad, validation.CleanText)
	setString(models.FieldFotoURL, &c.FotoURL, in.FotoURL, strings.TrimSpace)
	if tipo := in.ResolveTipo(c.Kind); tipo != nil && mode.Allows(models.FieldTipo) {
		c.Tipo = strings.ToUpper(strings.TrimSpace(*tipo))
		touched[c.Kind.TipoField()] = true
	}
	if in.FechaNacimiento != nil && mode.Allows(models.FieldFechaNacimiento) {
		c.FechaNacimiento = *in.FechaNacimiento
		touched[models.FieldFechaNacimiento] = true
	}
	if in.FechaVencimiento != nil && mode.Allows(models.FieldFechaVencimiento) {
		c.FechaVencimiento = *in.FechaVencimiento
		touched[models.FieldFechaVencimiento] = true
	}
	return c, touched
}

func (s *Service) Get(ctx context.Context, kind models.CredentialKind, id string) (models.Credential, error) {
	c, err := s.repo.Get(ctx, kind, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Credential{}, notFoundErr(kind, id)
	}
	if err != nil {
		return models.Credential{}, apperr.Wrap(apperr.Internal, err, "")
	}
	return c, nil
}

func (s *Service) GetByDocumento(ctx context.Context, kind models.CredentialKind, documento string) (models.Credential, error) {
	documento = validation.NormalizeDocumento(documento)
	c, err := s.repo.GetByDocumento(ctx, kind, documento)
	if errors.Is(err, store.ErrNotFound) {
		return models.Credential{}, apperr.New(apperr.NotFound, "no existe una credencial con documento %s", documento)
	}
	if err != nil {
		return models.Credential{}, apperr.Wrap(apperr.Internal, err, "")
	}
	return c, nil
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// List devuelve una página del listado con búsqueda sin tildes ni mayúsculas.
func (s *Service) List(ctx context.Context, kind models.CredentialKind, f store.CredentialFilter) (models.CredentialPage, error) {
	if !kind.Valid() {
		return models.CredentialPage{}, apperr.New(apperr.Validation, "tipo de credencial desconocido %q", kind)
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	items, total, err := s.repo.List(ctx, kind, f)
	if err != nil {
		return models.CredentialPage{}, apperr.Wrap(apperr.Internal, err, "")
	}
	return models.CredentialPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Expiring devuelve las credenciales que vencen entre hoy y hoy+days. Es
// solo informativo: el vencimiento no cambia ningún estado.
func (s *Service) Expiring(ctx context.Context, kind models.CredentialKind, days int) ([]models.Credential, error) {
	if days < 0 {
		return nil, apperr.InvalidField("dias", "no puede ser negativo")
	}
	today := s.today()
	items, err := s.repo.ExpiringBetween(ctx, kind, today, today.AddDays(days))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "")
	}
	return items, nil
}

// record registra auditoría sin deshacer la operación si la bitácora falla.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.Error("no se pudo registrar auditoría",
			zap.String("entity", e.EntityType), zap.String("id", e.EntityID), zap.Error(err))
	}
}

func inputOf(c models.Credential) validation.CredentialInput {
	return validation.CredentialInput{
		Kind:             c.Kind,
		Documento:        c.Documento,
		Nombre:           c.Nombre,
		Apellido:         c.Apellido,
		Nacionalidad:     c.Nacionalidad,
		FechaNacimiento:  c.FechaNacimiento,
		Tipo:             c.Tipo,
		FechaVencimiento: c.FechaVencimiento,
	}
}

func duplicateErr(documento string) error {
	return apperr.New(apperr.Conflict, "ya existe una credencial con el documento %s", documento)
}

func notFoundErr(kind models.CredentialKind, id string) error {
	return apperr.New(apperr.NotFound, "credencial %s %s no encontrada", kind, id)
}

package solicitud

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/audit"
	"github.com/yourorg/credenciales/internal/credential"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/notify"
	"github.com/yourorg/credenciales/internal/store"
	"github.com/yourorg/credenciales/internal/validation"
)

// EntityType es el nombre de entidad de las solicitudes en auditoría.
const EntityType = "SolicitudCredencial"

type SubmitInput = models.SolicitudCreateRequest

type repository interface {
	Insert(ctx context.Context, sol models.SolicitudCredencial) error
	UpdateEstado(ctx context.Context, sol models.SolicitudCredencial) error
	Get(ctx context.Context, id string) (models.SolicitudCredencial, error)
	List(ctx context.Context, f store.SolicitudFilter) ([]models.SolicitudCredencial, error)
}

type creator interface {
	Create(ctx context.Context, kind models.CredentialKind, in credential.CreateInput) (models.Credential, error)
}

type auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

// ToDraft convierte una solicitud en el borrador de alta de credencial. No
// persiste ni valida: el alta posterior valida todo. El tipo queda en el
// valor primario del enum, la foto vacía y el invitado se conserva como
// referencia al solicitante.
func ToDraft(sol models.SolicitudCredencial) credential.CreateInput {
	kind := sol.Tipo
	if !kind.Valid() {
		kind = models.KindMinisterial
	}
	draft := credential.CreateInput{
		Documento:       sol.DNI,
		Nombre:          sol.Nombre,
		Apellido:        sol.Apellido,
		Nacionalidad:    sol.Nacionalidad,
		FechaNacimiento: sol.FechaNacimiento,
	}
	switch kind {
	case models.KindCapellania:
		draft.TipoCapellan = kind.DefaultTipo()
	default:
		draft.TipoPastor = kind.DefaultTipo()
	}
	if sol.InvitadoID != nil && *sol.InvitadoID != "" {
		v := *sol.InvitadoID
		draft.InvitadoID = &v
	}
	return draft
}

// Service atiende las solicitudes de credencial de los invitados y su
// revisión por el personal.
type Service struct {
	repo   repository
	creds  creator
	audit  auditor
	notify notify.Notifier
	log    *zap.Logger
	clock  func() time.Time
}

func NewService(repo repository, creds creator, aud auditor, n notify.Notifier, log *zap.Logger) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	return &Service{repo: repo, creds: creds, audit: aud, notify: n, log: log, clock: time.Now}
}

// Submit registra la solicitud de un invitado. Falla con Conflict si ya hay
// una solicitud pendiente del mismo tipo para ese dni.
func (s *Service) Submit(ctx context.Context, invitadoID string, in SubmitInput) (models.SolicitudCredencial, error) {
	errs := validation.Errors{}
	kind, err := models.ParseKind(in.Tipo)
	if err != nil {
		errs.Add("tipo", "debe ser ministerial o capellania")
	}
	sol := models.SolicitudCredencial{
		Tipo:            kind,
		Nombre:          validation.CleanText(in.Nombre),
		Apellido:        validation.CleanText(in.Apellido),
		DNI:             validation.NormalizeDocumento(in.DNI),
		Nacionalidad:    validation.CleanText(in.Nacionalidad),
		FechaNacimiento: in.FechaNacimiento,
		Estado:          models.SolicitudPendiente,
	}
	errs.Name(models.FieldNombre, sol.Nombre)
	errs.Name(models.FieldApellido, sol.Apellido)
	errs.Documento("dni", sol.DNI)
	errs.Required(models.FieldNacionalidad, sol.Nacionalidad)
	errs.BirthDate(models.FieldFechaNacimiento, sol.FechaNacimiento, models.DateOf(s.clock()))
	if err := errs.Err(); err != nil {
		return models.SolicitudCredencial{}, err
	}

	pending, err := s.repo.List(ctx, store.SolicitudFilter{
		Estado: models.SolicitudPendiente,
		Tipo:   kind,
		DNI:    sol.DNI,
	})
	if err != nil {
		return models.SolicitudCredencial{}, apperr.Wrap(apperr.Internal, err, "")
	}
	if len(pending) > 0 {
		return models.SolicitudCredencial{}, apperr.New(apperr.Conflict,
			"ya existe una solicitud pendiente para el dni %s", sol.DNI)
	}

	now := s.clock().UTC().Truncate(time.Second)
	sol.ID = uuid.NewString()
	sol.CreatedAt = now
	sol.UpdatedAt = now
	if id := strings.TrimSpace(invitadoID); id != "" {
		sol.InvitadoID = &id
	}
	if err := s.repo.Insert(ctx, sol); err != nil {
		return models.SolicitudCredencial{}, apperr.Wrap(apperr.Internal, err, "")
	}

	s.record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   sol.ID,
		Action:     models.AuditCreate,
		Changes:    audit.Snapshot(fields(sol)),
	})
	s.notify.Publish(notify.Event{Type: notify.EventSolicitudCreada, Data: sol})
	s.log.Info("solicitud recibida", zap.String("id", sol.ID), zap.String("tipo", string(kind)))
	return sol, nil
}

// Mine lista las solicitudes del invitado, las más recientes primero.
func (s *Service) Mine(ctx context.Context, invitadoID string) ([]models.SolicitudCredencial, error) {
	if invitadoID == "" {
		return nil, apperr.New(apperr.Unauthorized, "")
	}
	return s.List(ctx, store.SolicitudFilter{InvitadoID: invitadoID})
}

func (s *Service) List(ctx context.Context, f store.SolicitudFilter) ([]models.SolicitudCredencial, error) {
	if f.Estado != "" && !f.Estado.Valid() {
		return nil, apperr.InvalidField("estado", "estado desconocido")
	}
	if f.Tipo != "" && !f.Tipo.Valid() {
		return nil, apperr.InvalidField("tipo", "tipo desconocido")
	}
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "")
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.SolicitudCredencial, error) {
	sol, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.SolicitudCredencial{}, apperr.New(apperr.NotFound, "solicitud %s no encontrada", id)
	}
	if err != nil {
		return models.SolicitudCredencial{}, apperr.Wrap(apperr.Internal, err, "")
	}
	return sol, nil
}

// Draft devuelve el borrador de credencial de una solicitud existente.
func (s *Service) Draft(ctx context.Context, id string) (credential.CreateInput, error) {
	sol, err := s.Get(ctx, id)
	if err != nil {
		return credential.CreateInput{}, err
	}
	return ToDraft(sol), nil
}

// SetEstado resuelve una solicitud pendiente y avisa al invitado. Una
// solicitud ya resuelta no vuelve a cambiar.
func (s *Service) SetEstado(ctx context.Context, id string, req models.SolicitudEstadoRequest) (models.SolicitudCredencial, error) {
	if !req.Estado.Valid() {
		return models.SolicitudCredencial{}, apperr.InvalidField("estado", "debe ser PENDIENTE, APROBADA o RECHAZADA")
	}
	sol, err := s.Get(ctx, id)
	if err != nil {
		return models.SolicitudCredencial{}, err
	}
	return s.transition(ctx, sol, req.Estado, strings.TrimSpace(req.Observaciones), nil)
}

// Convert crea la credencial a partir de la solicitud con los datos que el
// administrador completa, y marca la solicitud como APROBADA. La credencial
// no guarda referencia a la solicitud; solo conserva el invitado.
func (s *Service) Convert(ctx context.Context, id string, req models.SolicitudConvertRequest) (models.Credential, error) {
	sol, err := s.Get(ctx, id)
	if err != nil {
		return models.Credential{}, err
	}
	if sol.Estado != models.SolicitudPendiente {
		return models.Credential{}, resolvedErr(sol)
	}

	draft := ToDraft(sol)
	if t := strings.TrimSpace(req.Tipo); t != "" {
		draft.Tipo = t
	}
	draft.FechaVencimiento = req.FechaVencimiento
	draft.FotoURL = req.FotoURL

	c, err := s.creds.Create(ctx, sol.Tipo, draft)
	if err != nil {
		return models.Credential{}, err
	}

	meta := map[string]any{"credencialId": c.ID, "kind": string(c.Kind)}
	if _, err := s.transition(ctx, sol, models.SolicitudAprobada, sol.Observaciones, meta); err != nil {
		s.log.Error("credencial creada pero la solicitud no se pudo aprobar",
			zap.String("solicitud", sol.ID), zap.String("credencial", c.ID), zap.Error(err))
	}
	return c, nil
}

func (s *Service) transition(ctx context.Context, sol models.SolicitudCredencial, estado models.EstadoSolicitud, obs string, meta map[string]any) (models.SolicitudCredencial, error) {
	if sol.Estado != models.SolicitudPendiente && sol.Estado != estado {
		return models.SolicitudCredencial{}, resolvedErr(sol)
	}
	next := sol
	next.Estado = estado
	next.Observaciones = obs
	changes := audit.Diff(fields(sol), fields(next))
	if len(changes) == 0 {
		return sol, nil
	}

	next.UpdatedAt = s.clock().UTC().Truncate(time.Second)
	if err := s.repo.UpdateEstado(ctx, next); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.SolicitudCredencial{}, apperr.New(apperr.NotFound, "solicitud %s no encontrada", sol.ID)
		}
		return models.SolicitudCredencial{}, apperr.Wrap(apperr.Internal, err, "")
	}

	s.record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   next.ID,
		Action:     models.AuditUpdate,
		Changes:    changes,
		Metadata:   meta,
	})
	if next.InvitadoID != nil {
		s.notify.SendToUser(*next.InvitadoID, notify.Event{Type: notify.EventSolicitudEstado, Data: next})
	}
	s.notify.Publish(notify.Event{Type: notify.EventSolicitudEstado, Data: next})
	s.log.Info("solicitud actualizada", zap.String("id", next.ID), zap.String("estado", string(estado)))
	return next, nil
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.Error("no se pudo registrar auditoría",
			zap.String("entity", e.EntityType), zap.String("id", e.EntityID), zap.Error(err))
	}
}

func resolvedErr(sol models.SolicitudCredencial) error {
	return apperr.New(apperr.Conflict, "la solicitud ya fue resuelta (%s)", sol.Estado)
}

func fields(sol models.SolicitudCredencial) map[string]any {
	invitado := ""
	if sol.InvitadoID != nil {
		invitado = *sol.InvitadoID
	}
	return map[string]any{
		"tipo":            string(sol.Tipo),
		"nombre":          sol.Nombre,
		"apellido":        sol.Apellido,
		"dni":             sol.DNI,
		"nacionalidad":    sol.Nacionalidad,
		"fechaNacimiento": sol.FechaNacimiento.String(),
		"invitadoId":      invitado,
		"estado":          string(sol.Estado),
		"observaciones":   sol.Observaciones,
	}
}

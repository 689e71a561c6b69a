// Package editor modela el diálogo de alta y edición de credenciales: qué
// campos están habilitados en cada modo, la validación previa al envío y la
// entrega del registro creado una vez que el diálogo terminó de cerrarse.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/credential"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/validation"
)

// State es el estado visible del diálogo.
type State string

const (
	StateClosed       State = "closed"
	StateFrenteCreate State = "frente-create"
	StateFrenteEdit   State = "frente-edit"
	StateDorsoEdit    State = "dorso-edit"
)

var (
	ErrClosed   = errors.New("editor: el diálogo está cerrado")
	ErrBusy     = errors.New("editor: ya hay un envío en curso")
	ErrDisabled = errors.New("editor: campo deshabilitado")
)

// Form son los valores actuales de los campos del formulario.
type Form struct {
	Documento        string
	Nombre           string
	Apellido         string
	Nacionalidad     string
	FechaNacimiento  models.Date
	Tipo             string
	FotoURL          string
	FechaVencimiento models.Date
}

// Backend es el servicio que persiste lo que el diálogo envía.
type Backend interface {
	Create(ctx context.Context, kind models.CredentialKind, in credential.CreateInput) (models.Credential, error)
	Update(ctx context.Context, kind models.CredentialKind, id string, in credential.UpdateInput, mode models.EditMode) (models.Credential, error)
}

// Dialog es seguro para uso concurrente. Abrirlo descarta cualquier edición
// anterior; cerrarlo sin enviar no persiste nada.
type Dialog struct {
	mu      sync.Mutex
	state   State
	kind    models.CredentialKind
	record  models.Credential
	form    Form
	busy    bool
	errs    validation.Errors
	message string
	// pending corre en el próximo evento de cierre.
	pending []func()
	// session cambia en cada apertura y cierre.
	session uint64

	// OnCreated recibe el registro recién creado después de que el diálogo
	// se cerró, para que el llamador muestre la tarjeta.
	OnCreated func(models.Credential)
	// OnClosed se invoca en cada cierre, antes de OnCreated.
	OnClosed func()

	clock func() time.Time
}

func New() *Dialog {
	return &Dialog{state: StateClosed, clock: time.Now}
}

// OpenCreate abre el formulario de alta, opcionalmente pre-llenado con un
// borrador (por ejemplo el de una solicitud).
func (d *Dialog) OpenCreate(kind models.CredentialKind, draft credential.CreateInput) error {
	if !kind.Valid() {
		return fmt.Errorf("editor: tipo de credencial desconocido %q", kind)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
	d.state = StateFrenteCreate
	d.kind = kind
	d.form = Form{
		Documento:        draft.Documento,
		Nombre:           draft.Nombre,
		Apellido:         draft.Apellido,
		Nacionalidad:     draft.Nacionalidad,
		FechaNacimiento:  draft.FechaNacimiento,
		Tipo:             draft.ResolveTipo(kind),
		FotoURL:          draft.FotoURL,
		FechaVencimiento: draft.FechaVencimiento,
	}
	if draft.InvitadoID != nil {
		v := *draft.InvitadoID
		d.record.InvitadoID = &v
	}
	return nil
}

// OpenEdit abre un registro existente en el modo indicado.
func (d *Dialog) OpenEdit(c models.Credential, mode models.EditMode) error {
	var state State
	switch mode {
	case models.EditFrente:
		state = StateFrenteEdit
	case models.EditDorso:
		state = StateDorsoEdit
	default:
		return fmt.Errorf("editor: modo de edición desconocido %q", mode)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
	d.state = state
	d.kind = c.Kind
	d.record = c
	d.form = Form{
		Documento:        c.Documento,
		Nombre:           c.Nombre,
		Apellido:         c.Apellido,
		Nacionalidad:     c.Nacionalidad,
		FechaNacimiento:  c.FechaNacimiento,
		Tipo:             c.Tipo,
		FotoURL:          c.FotoURL,
		FechaVencimiento: c.FechaVencimiento,
	}
	return nil
}

// Close cierra el diálogo y descarta el formulario. Las continuaciones
// pendientes corren después de que el estado ya es closed.
func (d *Dialog) Close() {
	d.mu.Lock()
	if d.state == StateClosed && len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	run := d.closeLocked()
	d.mu.Unlock()
	for _, fn := range run {
		fn()
	}
}

func (d *Dialog) closeLocked() []func() {
	run := d.pending
	d.reset()
	if d.OnClosed != nil {
		run = append([]func(){d.OnClosed}, run...)
	}
	return run
}

func (d *Dialog) reset() {
	d.session++
	d.state = StateClosed
	d.kind = ""
	d.record = models.Credential{}
	d.form = Form{}
	d.busy = false
	d.errs = nil
	d.message = ""
	d.pending = nil
}

func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dialog) Kind() models.CredentialKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.kind
}

// Busy indica que hay un envío en curso; el botón de guardar se deshabilita.
func (d *Dialog) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

func (d *Dialog) Form() Form {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.form
}

// FieldErrors devuelve los mensajes por campo del último intento.
func (d *Dialog) FieldErrors() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.errs))
	for k, v := range d.errs {
		out[k] = v
	}
	return out
}

// Message es el aviso general del último error del servidor.
func (d *Dialog) Message() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.message
}

// Enabled indica si field acepta cambios en el estado actual.
func (d *Dialog) Enabled(field string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return enabled(d.state, field)
}

func enabled(s State, field string) bool {
	switch s {
	case StateFrenteCreate:
		return true
	case StateFrenteEdit:
		return models.EditFrente.Allows(field)
	case StateDorsoEdit:
		return models.EditDorso.Allows(field)
	}
	return false
}

// Set asigna un campo desde texto. Los campos deshabilitados se rechazan con
// ErrDisabled; las fechas se parsean como AAAA-MM-DD.
func (d *Dialog) Set(field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return ErrClosed
	}
	if !enabled(d.state, field) {
		return fmt.Errorf("%w: %s", ErrDisabled, field)
	}
	switch field {
	case models.FieldDocumento:
		d.form.Documento = value
	case models.FieldNombre:
		d.form.Nombre = value
	case models.FieldApellido:
		d.form.Apellido = value
	case models.FieldNacionalidad:
		d.form.Nacionalidad = value
	case models.FieldTipo:
		d.form.Tipo = strings.ToUpper(strings.TrimSpace(value))
	case models.FieldFotoURL:
		d.form.FotoURL = value
	case models.FieldFechaNacimiento, models.FieldFechaVencimiento:
		date, err := models.ParseDate(value)
		if err != nil {
			return err
		}
		if field == models.FieldFechaNacimiento {
			d.form.FechaNacimiento = date
		} else {
			d.form.FechaVencimiento = date
		}
	default:
		return fmt.Errorf("editor: campo desconocido %q", field)
	}
	delete(d.errs, d.errorKey(field))
	return nil
}

// Validate revisa los campos habilitados sin contactar al servidor.
func (d *Dialog) Validate() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.validateLocked()
}

func (d *Dialog) validateLocked() validation.Errors {
	if d.state == StateClosed {
		return validation.Errors{}
	}
	errs := validation.Credential(validation.CredentialInput{
		Kind:             d.kind,
		Documento:        validation.NormalizeDocumento(d.form.Documento),
		Nombre:           d.form.Nombre,
		Apellido:         d.form.Apellido,
		Nacionalidad:     d.form.Nacionalidad,
		FechaNacimiento:  d.form.FechaNacimiento,
		Tipo:             d.form.Tipo,
		FechaVencimiento: d.form.FechaVencimiento,
	}, models.DateOf(d.clock()))
	for _, field := range models.CredentialFields {
		if !enabled(d.state, field) {
			delete(errs, d.errorKey(field))
		}
	}
	return errs
}

// errorKey traduce el campo del formulario a la clave de error; el tipo se
// informa con el nombre propio del kind.
func (d *Dialog) errorKey(field string) string {
	if field == models.FieldTipo {
		return d.kind.TipoField()
	}
	return field
}

// CreatePayload arma el cuerpo de alta con los valores del formulario.
func (d *Dialog) CreatePayload() credential.CreateInput {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createPayloadLocked()
}

func (d *Dialog) createPayloadLocked() credential.CreateInput {
	in := credential.CreateInput{
		Documento:        d.form.Documento,
		Nombre:           d.form.Nombre,
		Apellido:         d.form.Apellido,
		Nacionalidad:     d.form.Nacionalidad,
		FechaNacimiento:  d.form.FechaNacimiento,
		Tipo:             d.form.Tipo,
		FotoURL:          d.form.FotoURL,
		FechaVencimiento: d.form.FechaVencimiento,
	}
	if d.record.InvitadoID != nil {
		v := *d.record.InvitadoID
		in.InvitadoID = &v
	}
	return in
}

// UpdatePayload incluye solo los campos habilitados en el estado actual.
func (d *Dialog) UpdatePayload() credential.UpdateInput {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updatePayloadLocked()
}

func (d *Dialog) updatePayloadLocked() credential.UpdateInput {
	var in credential.UpdateInput
	str := func(field, v string) *string {
		if !enabled(d.state, field) {
			return nil
		}
		return &v
	}
	date := func(field string, v models.Date) *models.Date {
		if !enabled(d.state, field) {
			return nil
		}
		return &v
	}
	in.Documento = str(models.FieldDocumento, d.form.Documento)
	in.Nombre = str(models.FieldNombre, d.form.Nombre)
	in.Apellido = str(models.FieldApellido, d.form.Apellido)
	in.Nacionalidad = str(models.FieldNacionalidad, d.form.Nacionalidad)
	in.FechaNacimiento = date(models.FieldFechaNacimiento, d.form.FechaNacimiento)
	in.Tipo = str(models.FieldTipo, d.form.Tipo)
	in.FotoURL = str(models.FieldFotoURL, d.form.FotoURL)
	in.FechaVencimiento = date(models.FieldFechaVencimiento, d.form.FechaVencimiento)
	return in
}

func (s State) mode() models.EditMode {
	if s == StateDorsoEdit {
		return models.EditDorso
	}
	return models.EditFrente
}

// Submit valida y envía el formulario. Con errores de validación no llama al
// backend. Si el backend falla, el diálogo queda abierto con el mensaje y los
// errores por campo. Tras un alta exitosa, OnCreated se programa para el
// evento de cierre y el diálogo se cierra.
func (d *Dialog) Submit(ctx context.Context, b Backend) (models.Credential, error) {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return models.Credential{}, ErrClosed
	}
	if d.busy {
		d.mu.Unlock()
		return models.Credential{}, ErrBusy
	}
	d.message = ""
	if errs := d.validateLocked(); len(errs) > 0 {
		d.errs = errs
		d.mu.Unlock()
		return models.Credential{}, errs.Err()
	}
	d.errs = nil
	d.busy = true
	state, kind, id, session := d.state, d.kind, d.record.ID, d.session
	create := d.createPayloadLocked()
	update := d.updatePayloadLocked()
	d.mu.Unlock()

	var (
		rec models.Credential
		err error
	)
	if state == StateFrenteCreate {
		rec, err = b.Create(ctx, kind, create)
	} else {
		rec, err = b.Update(ctx, kind, id, update, state.mode())
	}

	d.mu.Lock()
	if d.session != session {
		// Se cerró o reabrió mientras el envío estaba en curso; la respuesta
		// no pertenece al formulario actual.
		d.mu.Unlock()
		return rec, err
	}
	d.busy = false
	if err != nil {
		d.message = apperr.MessageOf(err)
		d.errs = apperr.FieldsOf(err)
		d.mu.Unlock()
		return models.Credential{}, err
	}
	if state == StateFrenteCreate && d.OnCreated != nil {
		onCreated := d.OnCreated
		d.pending = append(d.pending, func() { onCreated(rec) })
	}
	run := d.closeLocked()
	d.mu.Unlock()
	for _, fn := range run {
		fn()
	}
	return rec, nil
}

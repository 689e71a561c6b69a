package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CredentialKind distingue las dos credenciales físicas. Ambas comparten
// forma; solo cambian la tabla y el enum del tipo.
type CredentialKind string

const (
	KindMinisterial CredentialKind = "ministerial"
	KindCapellania  CredentialKind = "capellania"
)

// Tipos de pastor (credencial ministerial).
const (
	TipoPastor  = "PASTOR"
	TipoPastora = "PASTORA"
)

// Tipos de capellán (credencial de capellanía).
const (
	TipoCapellan  = "CAPELLAN"
	TipoCapellana = "CAPELLANA"
)

var kindTipos = map[CredentialKind][]string{
	KindMinisterial: {TipoPastor, TipoPastora},
	KindCapellania:  {TipoCapellan, TipoCapellana},
}

// ParseKind acepta el nombre del tipo o el segmento de ruta usado por la API.
func ParseKind(s string) (CredentialKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ministerial", "ministeriales", "credenciales-ministeriales":
		return KindMinisterial, nil
	case "capellania", "capellanía", "credenciales-capellania":
		return KindCapellania, nil
	}
	return "", fmt.Errorf("tipo de credencial desconocido %q", s)
}

func (k CredentialKind) Valid() bool {
	_, ok := kindTipos[k]
	return ok
}

// Tipos devuelve los valores permitidos del enum de tipo para k.
func (k CredentialKind) Tipos() []string {
	return append([]string(nil), kindTipos[k]...)
}

// DefaultTipo es el valor primario del enum, usado al pre-llenar borradores.
func (k CredentialKind) DefaultTipo() string {
	if t := kindTipos[k]; len(t) > 0 {
		return t[0]
	}
	return ""
}

func (k CredentialKind) ValidTipo(tipo string) bool {
	for _, t := range kindTipos[k] {
		if t == tipo {
			return true
		}
	}
	return false
}

// TipoField es el nombre del campo discriminador en la API y en auditoría.
func (k CredentialKind) TipoField() string {
	if k == KindCapellania {
		return "tipoCapellan"
	}
	return "tipoPastor"
}

// EntityType es el nombre de entidad registrado en auditoría.
func (k CredentialKind) EntityType() string {
	if k == KindCapellania {
		return "CredencialCapellania"
	}
	return "CredencialMinisterial"
}

// Title es el encabezado impreso en la tarjeta.
func (k CredentialKind) Title() string {
	if k == KindCapellania {
		return "CREDENCIAL DE CAPELLANÍA"
	}
	return "CREDENCIAL MINISTERIAL"
}

// Credential es una credencial ministerial o de capellanía.
type Credential struct {
	ID               string         `json:"id"`
	Kind             CredentialKind `json:"kind"`
	Documento        string         `json:"documento"`
	Nombre           string         `json:"nombre"`
	Apellido         string         `json:"apellido"`
	Nacionalidad     string         `json:"nacionalidad"`
	FechaNacimiento  Date           `json:"fechaNacimiento"`
	FotoURL          string         `json:"fotoUrl,omitempty"`
	Tipo             string         `json:"tipo"`
	FechaVencimiento Date           `json:"fechaVencimiento"`
	InvitadoID       *string        `json:"invitadoId,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// MarshalJSON agrega el campo discriminador propio del kind (tipoPastor o
// tipoCapellan) junto a tipo.
func (c Credential) MarshalJSON() ([]byte, error) {
	type plain Credential
	out := struct {
		plain
		TipoPastor   string `json:"tipoPastor,omitempty"`
		TipoCapellan string `json:"tipoCapellan,omitempty"`
	}{plain: plain(c)}
	if c.Kind == KindCapellania {
		out.TipoCapellan = c.Tipo
	} else {
		out.TipoPastor = c.Tipo
	}
	return json.Marshal(out)
}

// Fields devuelve los atributos auditables, con el nombre que usa la API.
func (c Credential) Fields() map[string]any {
	invitado := ""
	if c.InvitadoID != nil {
		invitado = *c.InvitadoID
	}
	return map[string]any{
		"documento":        c.Documento,
		"nombre":           c.Nombre,
		"apellido":         c.Apellido,
		"nacionalidad":     c.Nacionalidad,
		"fechaNacimiento":  c.FechaNacimiento.String(),
		"fotoUrl":          c.FotoURL,
		c.Kind.TipoField(): c.Tipo,
		"fechaVencimiento": c.FechaVencimiento.String(),
		"invitadoId":       invitado,
	}
}

// Vencida indica si la credencial venció respecto de today. Es informativo;
// no cambia ningún estado.
func (c Credential) Vencida(today Date) bool {
	return c.FechaVencimiento.Before(today)
}

// EditMode restringe qué campos acepta una actualización.
type EditMode string

const (
	// EditFrente permite todos los campos salvo documento.
	EditFrente EditMode = "frente"
	// EditDorso permite solo fechaVencimiento.
	EditDorso EditMode = "dorso"
)

func ParseEditMode(s string) (EditMode, error) {
	switch EditMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", EditFrente:
		return EditFrente, nil
	case EditDorso:
		return EditDorso, nil
	}
	return "", fmt.Errorf("modo de edición desconocido %q", s)
}

// Campos editables de una credencial, con el nombre de la API.
const (
	FieldDocumento        = "documento"
	FieldNombre           = "nombre"
	FieldApellido         = "apellido"
	FieldNacionalidad     = "nacionalidad"
	FieldFechaNacimiento  = "fechaNacimiento"
	FieldFotoURL          = "fotoUrl"
	FieldTipo             = "tipo"
	FieldFechaVencimiento = "fechaVencimiento"
)

// CredentialFields lista los campos del formulario en orden de pantalla.
var CredentialFields = []string{
	FieldApellido,
	FieldNombre,
	FieldDocumento,
	FieldNacionalidad,
	FieldFechaNacimiento,
	FieldTipo,
	FieldFotoURL,
	FieldFechaVencimiento,
}

// Allows indica si el modo permite modificar field en un registro existente.
func (m EditMode) Allows(field string) bool {
	switch m {
	case EditDorso:
		return field == FieldFechaVencimiento
	case EditFrente:
		return field != FieldDocumento
	}
	return false
}

// CredentialCreateRequest es el cuerpo de POST /credenciales-*.
type CredentialCreateRequest struct {
	Documento        string  `json:"documento" yaml:"documento"`
	Nombre           string  `json:"nombre" yaml:"nombre"`
	Apellido         string  `json:"apellido" yaml:"apellido"`
	Nacionalidad     string  `json:"nacionalidad" yaml:"nacionalidad"`
	FechaNacimiento  Date    `json:"fechaNacimiento" yaml:"fechaNacimiento"`
	FotoURL          string  `json:"fotoUrl,omitempty" yaml:"fotoUrl,omitempty"`
	Tipo             string  `json:"tipo,omitempty" yaml:"tipo"`
	TipoPastor       string  `json:"tipoPastor,omitempty" yaml:"tipoPastor,omitempty"`
	TipoCapellan     string  `json:"tipoCapellan,omitempty" yaml:"tipoCapellan,omitempty"`
	FechaVencimiento Date    `json:"fechaVencimiento" yaml:"fechaVencimiento"`
	InvitadoID       *string `json:"invitadoId,omitempty" yaml:"invitadoId,omitempty"`
}

// ResolveTipo unifica tipo/tipoPastor/tipoCapellan según el kind.
func (r CredentialCreateRequest) ResolveTipo(k CredentialKind) string {
	switch {
	case r.Tipo != "":
		return r.Tipo
	case k == KindMinisterial:
		return r.TipoPastor
	case k == KindCapellania:
		return r.TipoCapellan
	}
	return ""
}

// CredentialUpdateRequest es el cuerpo de PATCH /credenciales-*/:id. Los
// campos nil no se tocan.
type CredentialUpdateRequest struct {
	Documento        *string `json:"documento,omitempty"`
	Nombre           *string `json:"nombre,omitempty"`
	Apellido         *string `json:"apellido,omitempty"`
	Nacionalidad     *string `json:"nacionalidad,omitempty"`
	FechaNacimiento  *Date   `json:"fechaNacimiento,omitempty"`
	FotoURL          *string `json:"fotoUrl,omitempty"`
	Tipo             *string `json:"tipo,omitempty"`
	TipoPastor       *string `json:"tipoPastor,omitempty"`
	TipoCapellan     *string `json:"tipoCapellan,omitempty"`
	FechaVencimiento *Date   `json:"fechaVencimiento,omitempty"`
}

func (r CredentialUpdateRequest) ResolveTipo(k CredentialKind) *string {
	switch {
	case r.Tipo != nil:
		return r.Tipo
	case k == KindMinisterial:
		return r.TipoPastor
	case k == KindCapellania:
		return r.TipoCapellan
	}
	return nil
}

// CredentialPage es una página de resultados del listado.
type CredentialPage struct {
	Items  []Credential `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

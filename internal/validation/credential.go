package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/models"
)

const (
	// MinNameLength es el largo mínimo de nombre y apellido.
	MinNameLength = 2
	minDocumento  = 6
	maxDocumento  = 12
)

// Errors acumula un mensaje por campo.
type Errors map[string]string

// Add guarda el primer error de cada campo.
func (e Errors) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

// Err devuelve un *apperr.Error de validación o nil si no hay errores.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return apperr.Invalid(map[string]string(e))
}

// Required valida que value no esté vacío.
func (e Errors) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "campo obligatorio")
		return false
	}
	return true
}

// Name valida un nombre o apellido obligatorio de al menos MinNameLength letras.
func (e Errors) Name(field, value string) {
	if !e.Required(field, value) {
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(value)) < MinNameLength {
		e.Add(field, fmt.Sprintf("debe tener al menos %d caracteres", MinNameLength))
	}
}

// Documento valida un documento nacional ya normalizado.
func (e Errors) Documento(field, value string) {
	if !e.Required(field, value) {
		return
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			e.Add(field, "solo puede contener números")
			return
		}
	}
	if n := len(value); n < minDocumento || n > maxDocumento {
		e.Add(field, fmt.Sprintf("debe tener entre %d y %d dígitos", minDocumento, maxDocumento))
	}
}

// Tipo valida el discriminador según el kind de credencial.
func (e Errors) Tipo(kind models.CredentialKind, value string) {
	field := kind.TipoField()
	if !e.Required(field, value) {
		return
	}
	if !kind.ValidTipo(value) {
		e.Add(field, "debe ser uno de "+strings.Join(kind.Tipos(), ", "))
	}
}

// Date valida una fecha obligatoria.
func (e Errors) Date(field string, d models.Date) bool {
	if d.IsZero() {
		e.Add(field, "campo obligatorio")
		return false
	}
	return true
}

// BirthDate valida una fecha de nacimiento obligatoria que no esté en el futuro.
func (e Errors) BirthDate(field string, d, today models.Date) {
	if !e.Date(field, d) {
		return
	}
	if d.After(today) {
		e.Add(field, "no puede ser una fecha futura")
	}
}

// NormalizeDocumento quita espacios, puntos y guiones de un documento.
func NormalizeDocumento(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// CleanText recorta espacios y colapsa los internos.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CredentialInput es la vista que comparten el servicio y el formulario para
// validar una credencial completa.
type CredentialInput struct {
	Kind             models.CredentialKind
	Documento        string
	Nombre           string
	Apellido         string
	Nacionalidad     string
	FechaNacimiento  models.Date
	Tipo             string
	FechaVencimiento models.Date
}

// Credential valida todos los campos obligatorios de una credencial.
func Credential(in CredentialInput, today models.Date) Errors {
	errs := Errors{}
	errs.Name(models.FieldApellido, in.Apellido)
	errs.Name(models.FieldNombre, in.Nombre)
	errs.Documento(models.FieldDocumento, in.Documento)
	errs.Required(models.FieldNacionalidad, in.Nacionalidad)
	errs.BirthDate(models.FieldFechaNacimiento, in.FechaNacimiento, today)
	errs.Tipo(in.Kind, in.Tipo)
	errs.Date(models.FieldFechaVencimiento, in.FechaVencimiento)
	return errs
}

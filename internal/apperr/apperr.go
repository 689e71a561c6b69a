package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind clasifica un error de aplicación. El conjunto es cerrado: los
// llamadores deciden por Kind, nunca por el texto del mensaje.
type Kind int

const (
	Internal Kind = iota
	Validation
	Conflict
	NotFound
	Upload
	Unauthorized
	Forbidden
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Upload:
		return "upload"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Unavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error es el error tipado que cruza las capas de servicio y HTTP.
type Error struct {
	Kind    Kind
	Message string
	// Fields guarda mensajes por campo para errores de validación.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is permite comparar con errors.Is contra un *Error que solo define Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Fields == nil && t.Err == nil && t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Invalid construye un error de validación con mensajes por campo.
func Invalid(fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: "datos inválidos", Fields: fields}
}

func InvalidField(field, message string) *Error {
	return Invalid(map[string]string{field: message})
}

// KindOf devuelve el Kind del primer *Error en la cadena, o Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// FieldsOf devuelve los mensajes por campo si err es un error de validación.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// MessageOf devuelve el mensaje legible de err, con un texto genérico por
// Kind cuando el error no trae uno.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return GenericMessage(KindOf(err))
}

func GenericMessage(k Kind) string {
	switch k {
	case Validation:
		return "los datos enviados no son válidos"
	case Conflict:
		return "el registro ya existe"
	case NotFound:
		return "registro no encontrado"
	case Upload:
		return "no se pudo subir el archivo"
	case Unauthorized:
		return "autenticación requerida"
	case Forbidden:
		return "no tiene permisos para esta operación"
	case Unavailable:
		return "servicio no disponible, intente nuevamente"
	default:
		return "error interno del servidor"
	}
}

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(Conflict, "ya existe %s", "30123456")
	wrapped := fmt.Errorf("crear credencial: %w", base)

	assert.Equal(t, Conflict, KindOf(wrapped))
	assert.Equal(t, "ya existe 30123456", MessageOf(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Kind: Conflict}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: NotFound}))
}

func TestPlainErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, Internal, KindOf(err))
	assert.Equal(t, GenericMessage(Internal), MessageOf(err))
	assert.Nil(t, FieldsOf(err))
}

func TestEmptyMessageFallsBackToGeneric(t *testing.T) {
	err := Wrap(Unavailable, errors.New("chrome not found"), "")
	assert.Equal(t, "servicio no disponible, intente nuevamente", MessageOf(err))
	assert.Contains(t, err.Error(), "chrome not found")
}

func TestInvalidFields(t *testing.T) {
	err := Invalid(map[string]string{"nombre": "campo obligatorio", "apellido": "campo obligatorio"})
	assert.Equal(t, Validation, KindOf(err))
	assert.Equal(t, "datos inválidos (apellido: campo obligatorio; nombre: campo obligatorio)", err.Error())
	assert.Equal(t, map[string]string{"documento": "x"}, FieldsOf(InvalidField("documento", "x")))
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Internal:     "internal",
		Validation:   "validation",
		Conflict:     "conflict",
		NotFound:     "not_found",
		Upload:       "upload",
		Unauthorized: "unauthorized",
		Forbidden:    "forbidden",
		Unavailable:  "unavailable",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}

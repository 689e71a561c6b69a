package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/models"
)

func TestParseImport(t *testing.T) {
	src := `
ministerial:
  - documento: "30.123.456"
    nombre: Juan
    apellido: Pérez
    nacionalidad: Argentina
    fechaNacimiento: 1980-05-10
    tipo: PASTOR
    fechaVencimiento: 2027-01-31
capellania:
  - documento: "28999111"
    nombre: Ana
    apellido: Gómez
    nacionalidad: Argentina
    fechaNacimiento: 1975-01-02
    tipoCapellan: CAPELLANA
    fechaVencimiento: 2026-12-31
`
	f, err := parseImport(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, f.Ministerial, 1)
	require.Len(t, f.Capellania, 1)

	m := f.Ministerial[0]
	assert.Equal(t, "30.123.456", m.Documento)
	assert.Equal(t, models.NewDate(1980, 5, 10), m.FechaNacimiento)
	assert.Equal(t, "PASTOR", m.ResolveTipo(models.KindMinisterial))

	c := f.Capellania[0]
	assert.Equal(t, "CAPELLANA", c.ResolveTipo(models.KindCapellania))
	assert.Equal(t, models.NewDate(2026, 12, 31), c.FechaVencimiento)
}

func TestParseImportRejectsUnknownFields(t *testing.T) {
	_, err := parseImport(strings.NewReader("ministerial:\n  - dni: \"123\"\n"))
	require.Error(t, err)
}

func TestParseImportEmpty(t *testing.T) {
	f, err := parseImport(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Ministerial)
	assert.Empty(t, f.Capellania)
}

func TestDescribe(t *testing.T) {
	assert.NoError(t, describe(nil))

	err := describe(apperr.Invalid(map[string]string{
		"nombre":   "campo obligatorio",
		"apellido": "campo obligatorio",
	}))
	assert.Equal(t, "datos inválidos (apellido: campo obligatorio; nombre: campo obligatorio)", err.Error())

	err = describe(apperr.New(apperr.Conflict, "ya existe una credencial con el documento 1"))
	assert.Equal(t, "ya existe una credencial con el documento 1", err.Error())

	err = describe(errors.New("boom"))
	assert.Equal(t, apperr.GenericMessage(apperr.Internal), err.Error())
}

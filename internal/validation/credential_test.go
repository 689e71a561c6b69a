package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/models"
)

var today = models.NewDate(2025, time.June, 15)

func validInput() CredentialInput {
	return CredentialInput{
		Kind:             models.KindMinisterial,
		Documento:        "30123456",
		Nombre:           "Juan",
		Apellido:         "Pérez",
		Nacionalidad:     "Argentina",
		FechaNacimiento:  models.NewDate(1975, time.March, 2),
		Tipo:             models.TipoPastor,
		FechaVencimiento: models.NewDate(2026, time.June, 1),
	}
}

func TestCredentialValid(t *testing.T) {
	assert.NoError(t, Credential(validInput(), today).Err())
}

func TestCredentialMissingFields(t *testing.T) {
	errs := Credential(CredentialInput{Kind: models.KindCapellania}, today)

	for _, f := range []string{"apellido", "nombre", "documento", "nacionalidad", "fechaNacimiento", "tipoCapellan", "fechaVencimiento"} {
		assert.Equal(t, "campo obligatorio", errs[f], f)
	}

	err := errs.Err()
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Len(t, apperr.FieldsOf(err), 7)
}

func TestCredentialRules(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*CredentialInput)
		field string
	}{
		{"short nombre", func(in *CredentialInput) { in.Nombre = "J" }, "nombre"},
		{"documento letters", func(in *CredentialInput) { in.Documento = "30A23456" }, "documento"},
		{"documento too short", func(in *CredentialInput) { in.Documento = "123" }, "documento"},
		{"wrong tipo for kind", func(in *CredentialInput) { in.Tipo = models.TipoCapellan }, "tipoPastor"},
		{"birth in future", func(in *CredentialInput) { in.FechaNacimiento = models.NewDate(2030, 1, 1) }, "fechaNacimiento"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mod(&in)
			errs := Credential(in, today)
			assert.Len(t, errs, 1)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestNormalizeDocumento(t *testing.T) {
	assert.Equal(t, "30123456", NormalizeDocumento(" 30.123.456 "))
	assert.Equal(t, "99999999", NormalizeDocumento("99-999 999"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Ana María", CleanText("  Ana   María "))
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/credenciales/internal/db/dbtest"
	"github.com/yourorg/credenciales/internal/models"
)

func sampleSolicitud(id, dni string, tipo models.CredentialKind, created time.Time) models.SolicitudCredencial {
	invitado := "guest-1"
	return models.SolicitudCredencial{
		ID:              id,
		Tipo:            tipo,
		Nombre:          "Ana",
		Apellido:        "Gómez",
		DNI:             dni,
		Nacionalidad:    "Argentina",
		FechaNacimiento: models.NewDate(1980, time.January, 2),
		InvitadoID:      &invitado,
		Estado:          models.SolicitudPendiente,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestSolicitudStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSolicitudStore(dbtest.Open(t))

	sol := sampleSolicitud("s1", "99999999", models.KindCapellania, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.Insert(ctx, sol))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	if diff := cmp.Diff(sol, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSolicitudStoreUpdateEstado(t *testing.T) {
	ctx := context.Background()
	s := NewSolicitudStore(dbtest.Open(t))

	sol := sampleSolicitud("s1", "99999999", models.KindMinisterial, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.Insert(ctx, sol))

	sol.Estado = models.SolicitudRechazada
	sol.Observaciones = "documento ilegible"
	sol.UpdatedAt = sol.UpdatedAt.Add(time.Hour)
	require.NoError(t, s.UpdateEstado(ctx, sol))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SolicitudRechazada, got.Estado)
	assert.Equal(t, "documento ilegible", got.Observaciones)
	assert.True(t, got.UpdatedAt.Equal(sol.UpdatedAt))

	missing := sol
	missing.ID = "nope"
	assert.ErrorIs(t, s.UpdateEstado(ctx, missing), ErrNotFound)
}

func TestSolicitudStoreListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewSolicitudStore(dbtest.Open(t))

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	a := sampleSolicitud("a", "11111111", models.KindMinisterial, base)
	b := sampleSolicitud("b", "22222222", models.KindCapellania, base.Add(time.Hour))
	c := sampleSolicitud("c", "33333333", models.KindCapellania, base.Add(2*time.Hour))
	c.Estado = models.SolicitudAprobada
	other := "guest-2"
	c.InvitadoID = &other
	for _, sol := range []models.SolicitudCredencial{a, b, c} {
		require.NoError(t, s.Insert(ctx, sol))
	}

	ids := func(f SolicitudFilter) []string {
		items, err := s.List(ctx, f)
		require.NoError(t, err)
		out := []string{}
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	assert.Equal(t, []string{"c", "b", "a"}, ids(SolicitudFilter{}))
	assert.Equal(t, []string{"b", "a"}, ids(SolicitudFilter{Estado: models.SolicitudPendiente}))
	assert.Equal(t, []string{"c", "b"}, ids(SolicitudFilter{Tipo: models.KindCapellania}))
	assert.Equal(t, []string{"b", "a"}, ids(SolicitudFilter{InvitadoID: "guest-1"}))
	assert.Equal(t, []string{"a"}, ids(SolicitudFilter{DNI: "11111111"}))
	assert.Empty(t, ids(SolicitudFilter{DNI: "44444444"}))
}

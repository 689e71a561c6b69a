package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/db/dbtest"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/store"
)

func TestDiffOnlyChangedFields(t *testing.T) {
	before := map[string]any{"nombre": "Ana", "apellido": "Gómez", "fechaVencimiento": "2026-06-01"}
	after := map[string]any{"nombre": "Ana", "apellido": "Gómez", "fechaVencimiento": "2027-01-01"}

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, models.AuditChange{Field: "fechaVencimiento", OldValue: "2026-06-01", NewValue: "2027-01-01"}, changes[0])

	assert.Empty(t, Diff(before, before))
}

func TestSnapshotIsSorted(t *testing.T) {
	changes := Snapshot(map[string]any{"b": 1, "a": 2})
	require.Len(t, changes, 2)
	assert.Equal(t, "a", changes[0].Field)
	assert.Nil(t, changes[0].OldValue)
	assert.Equal(t, "b", changes[1].Field)
}

func TestRecordRequiresActor(t *testing.T) {
	svc := NewService(store.NewAuditStore(dbtest.Open(t)), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, Entry{EntityType: "CredencialMinisterial", EntityID: "x", Action: models.AuditCreate}))

	logs, err := svc.List(ctx, store.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRecordAndList(t *testing.T) {
	svc := NewService(store.NewAuditStore(dbtest.Open(t)), zap.NewNop())
	fixed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	ctx := WithActor(context.Background(), Actor{UserID: "u1", UserEmail: "admin@iglesia.org", IPAddress: "10.0.0.1"})

	require.NoError(t, svc.Record(ctx, Entry{
		EntityType: "CredencialMinisterial",
		EntityID:   "c1",
		Action:     models.AuditCreate,
		Changes:    Snapshot(map[string]any{"documento": "30123456"}),
	}))
	require.NoError(t, svc.Record(ctx, Entry{
		EntityType: "CredencialMinisterial",
		EntityID:   "c1",
		Action:     models.AuditUpdate,
		Changes:    []models.AuditChange{{Field: "fechaVencimiento", OldValue: "2026-06-01", NewValue: "2027-01-01"}},
		Metadata:   map[string]any{"modo": "dorso"},
	}))
	require.NoError(t, svc.Record(ctx, Entry{EntityType: "CredencialCapellania", EntityID: "c2", Action: models.AuditCreate}))

	logs, err := svc.List(ctx, store.AuditFilter{EntityType: "CredencialMinisterial", EntityID: "c1"})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, models.AuditUpdate, logs[0].Action, "más reciente primero")
	assert.Equal(t, "u1", logs[0].UserID)
	assert.Equal(t, "admin@iglesia.org", logs[0].UserEmail)
	assert.Equal(t, "10.0.0.1", logs[0].IPAddress)
	assert.Equal(t, "dorso", logs[0].Metadata["modo"])
	require.Len(t, logs[0].Changes, 1)
	assert.Equal(t, "2027-01-01", logs[0].Changes[0].NewValue)

	assert.Equal(t, models.AuditCreate, logs[1].Action)

	err = svc.Record(ctx, Entry{EntityType: "X", EntityID: "1", Action: "BORRAR"})
	assert.Error(t, err)
}

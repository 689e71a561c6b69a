package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/models"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   []Event
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{closed: make(chan struct{})} }

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	f.mu.Lock()
	f.msgs = append(f.msgs, e)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.msgs...)
}

func startHub(t *testing.T) (*Hub, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zap.NewNop())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, ctx
}

func connect(t *testing.T, h *Hub, ctx context.Context, userID string, role models.Role) *fakeConn {
	t.Helper()
	before := h.Clients(ctx)
	conn := newFakeConn()
	go h.Serve(conn, userID, role)
	require.Eventually(t, func() bool { return h.Clients(ctx) == before+1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestPublishReachesStaffOnly(t *testing.T) {
	h, ctx := startHub(t)
	admin := connect(t, h, ctx, "admin-1", models.RoleAdmin)
	guest := connect(t, h, ctx, "guest-1", models.RoleInvitado)

	h.Publish(Event{Type: EventCredencialCreada, Data: map[string]string{"id": "c1"}})

	require.Eventually(t, func() bool { return len(admin.events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, EventCredencialCreada, admin.events()[0].Type)
	assert.False(t, admin.events()[0].At.IsZero())

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, guest.events())
}

func TestSendToUser(t *testing.T) {
	h, ctx := startHub(t)
	guest := connect(t, h, ctx, "guest-1", models.RoleInvitado)
	other := connect(t, h, ctx, "guest-2", models.RoleInvitado)

	h.SendToUser("guest-1", Event{Type: EventSolicitudEstado})
	h.SendToUser("", Event{Type: EventSolicitudEstado})

	require.Eventually(t, func() bool { return len(guest.events()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, other.events())
}

func TestDisconnectUnregisters(t *testing.T) {
	h, ctx := startHub(t)
	conn := connect(t, h, ctx, "admin-1", models.RoleAdmin)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Clients(ctx) == 0 }, time.Second, 5*time.Millisecond)
}

func TestServeWithoutRunClosesConn(t *testing.T) {
	h := NewHub(zap.NewNop())
	h.registerWait = 20 * time.Millisecond
	conn := newFakeConn()

	done := make(chan struct{})
	go func() {
		h.Serve(conn, "u-1", models.RoleAdmin)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve quedó bloqueado sin Run")
	}
	select {
	case <-conn.closed:
	default:
		t.Fatal("la conexión no se cerró")
	}
}

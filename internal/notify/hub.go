package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/models"
)

// Tipos de evento emitidos por los servicios.
const (
	EventCredencialCreada      = "credencial.creada"
	EventCredencialActualizada = "credencial.actualizada"
	EventSolicitudCreada       = "solicitud.creada"
	EventSolicitudEstado       = "solicitud.estado"
)

// Event es el mensaje que reciben los clientes conectados.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Notifier es lo que los servicios necesitan del hub.
type Notifier interface {
	// Publish envía el evento a todo el personal conectado.
	Publish(e Event)
	// SendToUser envía el evento a las conexiones de un usuario.
	SendToUser(userID string, e Event)
}

// Conn es la parte de *websocket.Conn que usa el hub.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type client struct {
	conn   Conn
	userID string
	role   models.Role
	send   chan []byte
}

type delivery struct {
	data   []byte
	userID string
	staff  bool
}

// Hub mantiene las conexiones WebSocket de notificaciones. Un cliente lento
// cuyo buffer se llena se desconecta. Run debe estar corriendo para que
// Serve acepte conexiones.
type Hub struct {
	clients      map[*client]bool
	broadcast    chan delivery
	register     chan *client
	unregister   chan *client
	counts       chan chan int
	stopped      chan struct{}
	registerWait time.Duration
	log          *zap.Logger
}

const (
	clientBuffer    = 16
	broadcastBuffer = 256
	registerWait    = 5 * time.Second
)

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[*client]bool),
		broadcast:    make(chan delivery, broadcastBuffer),
		register:     make(chan *client),
		unregister:   make(chan *client),
		counts:       make(chan chan int),
		stopped:      make(chan struct{}),
		registerWait: registerWait,
		log:          log,
	}
}

// Run atiende registros y envíos hasta que ctx termina.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.log.Info("notificaciones: cliente conectado",
				zap.String("user", c.userID), zap.Int("clientes", len(h.clients)))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.log.Info("notificaciones: cliente desconectado",
					zap.String("user", c.userID), zap.Int("clientes", len(h.clients)))
			}

		case d := <-h.broadcast:
			for c := range h.clients {
				if !d.matches(c) {
					continue
				}
				select {
				case c.send <- d.data:
				default:
					h.log.Warn("notificaciones: cliente lento, desconectando", zap.String("user", c.userID))
					h.drop(c)
				}
			}

		case reply := <-h.counts:
			reply <- len(h.clients)
		}
	}
}

func (d delivery) matches(c *client) bool {
	if d.userID != "" {
		return c.userID == d.userID
	}
	return d.staff && c.role.IsStaff()
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
}

// Clients devuelve la cantidad de conexiones activas.
func (h *Hub) Clients(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- reply:
	case <-ctx.Done():
		return 0
	case <-h.stopped:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-ctx.Done():
		return 0
	}
}

func (h *Hub) Publish(e Event) {
	h.enqueue(delivery{staff: true}, e)
}

func (h *Hub) SendToUser(userID string, e Event) {
	if userID == "" {
		return
	}
	h.enqueue(delivery{userID: userID}, e)
}

func (h *Hub) enqueue(d delivery, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Error("notificaciones: no se pudo serializar evento", zap.String("type", e.Type), zap.Error(err))
		return
	}
	d.data = data
	select {
	case h.broadcast <- d:
	default:
		h.log.Warn("notificaciones: cola llena, evento descartado", zap.String("type", e.Type))
	}
}

// Serve registra conn y bloquea hasta que el cliente se desconecta. Los
// mensajes entrantes se ignoran. Si el hub no acepta el registro a tiempo
// (Run detenido o nunca iniciado) cierra conn y vuelve.
func (h *Hub) Serve(conn Conn, userID string, role models.Role) {
	c := &client{conn: conn, userID: userID, role: role, send: make(chan []byte, clientBuffer)}
	timer := time.NewTimer(h.registerWait)
	defer timer.Stop()
	select {
	case h.register <- c:
	case <-h.stopped:
		_ = conn.Close()
		return
	case <-timer.C:
		h.log.Warn("notificaciones: el hub no atiende registros, cerrando conexión", zap.String("user", userID))
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("notificaciones: error de escritura", zap.Error(err))
				break
			}
		}
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
	<-done
}

// Nop descarta todos los eventos; útil en el CLI y en pruebas.
type Nop struct{}

func (Nop) Publish(Event)            {}
func (Nop) SendToUser(string, Event) {}

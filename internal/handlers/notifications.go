package handlers

import (
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/credenciales/internal/middleware"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/notify"
)

type NotificationHandler struct {
	hub *notify.Hub
}

func NewNotificationHandler(hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// Stream atiende /ws/notificaciones. RequireAuth ya dejó la identidad en
// Locals, que websocket.Conn conserva después del upgrade.
func (h *NotificationHandler) Stream(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(string)
	role, _ := conn.Locals(middleware.LocalRole).(models.Role)
	h.hub.Serve(conn, userID, role)
}

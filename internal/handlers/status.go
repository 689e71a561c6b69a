package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusHandler expone el estado operativo para administradores: uptime,
// pool de conexiones y volumen de cada tabla.
type StatusHandler struct {
	db        *sql.DB
	log       *zap.Logger
	startTime time.Time
	version   string
}

func NewStatusHandler(db *sql.DB, log *zap.Logger, version string) *StatusHandler {
	return &StatusHandler{db: db, log: log, startTime: time.Now(), version: version}
}

// SystemStatus representa el estado completo del sistema
type SystemStatus struct {
	Backend  BackendStatus  `json:"backend"`
	Database DatabaseStatus `json:"database"`
	Tables   []TableStats   `json:"tables"`
}

type BackendStatus struct {
	Status       string `json:"status"`
	ResponseTime int    `json:"responseTime"`
	Uptime       int64  `json:"uptime"`
	Version      string `json:"version"`
}

// DatabaseStatus representa el estado de la base de datos
type DatabaseStatus struct {
	Status         string `json:"status"`
	Connections    int    `json:"connections"`
	Idle           int    `json:"idle"`
	MaxConnections int    `json:"maxConnections"`
	WaitCount      int64  `json:"waitCount"`
}

// TableStats cuenta filas de una tabla y, si aplica, las pendientes.
type TableStats struct {
	TableName string `json:"tableName"`
	RowCount  int64  `json:"rowCount"`
	Pending   *int64 `json:"pending,omitempty"`
}

var statusTables = []string{
	"credenciales_ministeriales",
	"credenciales_capellania",
	"solicitudes_credenciales",
	"audit_logs",
	"usuarios",
}

// GetStatus handles GET /api/status
func (h *StatusHandler) GetStatus(c *fiber.Ctx) error {
	startRequest := time.Now()

	status := SystemStatus{
		Backend: BackendStatus{
			Status:  "online",
			Uptime:  int64(time.Since(h.startTime).Seconds()),
			Version: h.version,
		},
		Database: DatabaseStatus{Status: "offline"},
		Tables:   []TableStats{},
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	if h.db != nil && h.db.PingContext(ctx) == nil {
		status.Database.Status = "online"
		stats := h.db.Stats()
		status.Database.Connections = stats.InUse
		status.Database.Idle = stats.Idle
		status.Database.MaxConnections = stats.MaxOpenConnections
		status.Database.WaitCount = stats.WaitCount

		for _, table := range statusTables {
			ts := TableStats{TableName: table}
			if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&ts.RowCount); err != nil {
				h.log.Warn("status: no se pudo contar la tabla", zap.String("table", table), zap.Error(err))
				continue
			}
			if table == "solicitudes_credenciales" {
				var pending int64
				if err := h.db.QueryRowContext(ctx,
					"SELECT COUNT(*) FROM solicitudes_credenciales WHERE estado = 'PENDIENTE'").Scan(&pending); err == nil {
					ts.Pending = &pending
				}
			}
			status.Tables = append(status.Tables, ts)
		}
	}

	status.Backend.ResponseTime = int(time.Since(startRequest).Milliseconds())
	return c.JSON(status)
}

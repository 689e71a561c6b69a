package models

import "time"

// AuditAction es la acción registrada en la bitácora.
type AuditAction string

const (
	AuditCreate          AuditAction = "CREATE"
	AuditUpdate          AuditAction = "UPDATE"
	AuditDelete          AuditAction = "DELETE"
	AuditPublicar        AuditAction = "PUBLICAR"
	AuditOcultar         AuditAction = "OCULTAR"
	AuditDestacar        AuditAction = "DESTACAR"
	AuditQuitarDestacado AuditAction = "QUITAR_DESTACADO"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditCreate, AuditUpdate, AuditDelete, AuditPublicar, AuditOcultar, AuditDestacar, AuditQuitarDestacado:
		return true
	}
	return false
}

// AuditChange es un cambio de un campo: valor anterior y nuevo.
type AuditChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// AuditLog es una entrada de la bitácora. Solo se agregan, nunca se modifican.
type AuditLog struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Action     AuditAction    `json:"action"`
	UserID     string         `json:"userId"`
	UserEmail  string         `json:"userEmail,omitempty"`
	Changes    []AuditChange  `json:"changes,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

package models

import "time"

// EstadoSolicitud es el estado de revisión de una solicitud de credencial.
type EstadoSolicitud string

const (
	SolicitudPendiente EstadoSolicitud = "PENDIENTE"
	SolicitudAprobada  EstadoSolicitud = "APROBADA"
	SolicitudRechazada EstadoSolicitud = "RECHAZADA"
)

func (e EstadoSolicitud) Valid() bool {
	switch e {
	case SolicitudPendiente, SolicitudAprobada, SolicitudRechazada:
		return true
	}
	return false
}

// SolicitudCredencial es el pedido de credencial que envía un invitado.
type SolicitudCredencial struct {
	ID              string          `json:"id"`
	Tipo            CredentialKind  `json:"tipo"`
	Nombre          string          `json:"nombre"`
	Apellido        string          `json:"apellido"`
	DNI             string          `json:"dni"`
	Nacionalidad    string          `json:"nacionalidad"`
	FechaNacimiento Date            `json:"fechaNacimiento"`
	InvitadoID      *string         `json:"invitadoId,omitempty"`
	Estado          EstadoSolicitud `json:"estado"`
	Observaciones   string          `json:"observaciones,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// SolicitudCreateRequest es el cuerpo de POST /solicitudes-credenciales.
type SolicitudCreateRequest struct {
	Tipo            string `json:"tipo"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	DNI             string `json:"dni"`
	Nacionalidad    string `json:"nacionalidad"`
	FechaNacimiento Date   `json:"fechaNacimiento"`
}

// SolicitudEstadoRequest es el cuerpo de PATCH /solicitudes-credenciales/:id/estado.
type SolicitudEstadoRequest struct {
	Estado        EstadoSolicitud `json:"estado"`
	Observaciones string          `json:"observaciones,omitempty"`
}

// SolicitudConvertRequest completa los datos que la solicitud no trae al
// convertirla en credencial.
type SolicitudConvertRequest struct {
	Tipo             string `json:"tipo,omitempty"`
	FechaVencimiento Date   `json:"fechaVencimiento"`
	FotoURL          string `json:"fotoUrl,omitempty"`
}

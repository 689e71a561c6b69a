package models

import "time"

// Role es el rol de un usuario de la plataforma.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEditor   Role = "EDITOR"
	RoleInvitado Role = "INVITADO"
)

// IsStaff indica si el rol pertenece al personal (admin o editor).
func (r Role) IsStaff() bool { return r == RoleAdmin || r == RoleEditor }

// User represents a user record in DB (internal use only).
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nombre       string    `json:"nombre"`
	PasswordHash string    `json:"-"`
	Rol          Role      `json:"rol"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest holds the data for creating a new guest user.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nombre   string `json:"nombre"`
}

// LoginRequest represents credentials provided by the client.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserDTO is a minimal user representation for responses.
type UserDTO struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
	Rol    Role   `json:"rol"`
}

func (u User) DTO() UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, Nombre: u.Nombre, Rol: u.Rol}
}

// LoginResponse is returned upon successful authentication.
type LoginResponse struct {
	Token     string    `json:"token"`
	User      UserDTO   `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ErrorResponse is the error shape for API errors.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

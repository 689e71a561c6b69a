package store

import "errors"

var (
	// ErrNotFound indica que la fila pedida no existe.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate indica una violación de unicidad.
	ErrDuplicate = errors.New("store: duplicate key")
)

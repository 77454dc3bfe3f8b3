package dto

import "time"

// CreateWarehouseRequest entrada para crear una bodega.
type CreateWarehouseRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Location string `json:"location" validate:"max=255"`
}

// UpdateWarehouseRequest entrada para actualizar una bodega (parcial).
type UpdateWarehouseRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Location *string `json:"location" validate:"omitempty,max=255"`
}

// WarehouseResponse salida de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseListResponse lista paginada de bodegas.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

package entity

import "time"

// Product representa un producto del catálogo. El stock se maneja por bodega en InventoryRow.
type Product struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

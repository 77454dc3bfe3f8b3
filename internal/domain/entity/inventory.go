package entity

import "time"

// InventoryRow es el stock actual de un producto en una bodega (tabla materializada).
// Solo el reconciliador la modifica; Stock nunca es negativo.
type InventoryRow struct {
	WarehouseID string
	ProductID   string
	Stock       int64
	UpdatedAt   time.Time
}

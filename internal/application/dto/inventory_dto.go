package dto

import "time"

// RecordMovementRequest body para POST /api/inventory/movements.
type RecordMovementRequest struct {
	WarehouseID     string `json:"warehouse_id" validate:"required,uuid"`
	ProductID       string `json:"product_id" validate:"required,uuid"`
	Quantity        int64  `json:"quantity" validate:"required,gt=0"`
	TransactionType string `json:"transaction_type" validate:"required,oneof=IN OUT"`
}

// AmendMovementRequest body para PATCH /api/inventory/movements/:id.
// Bodega y producto no se pueden cambiar.
type AmendMovementRequest struct {
	Quantity        *int64  `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	TransactionType *string `json:"transaction_type,omitempty" validate:"omitempty,oneof=IN OUT"`
}

// MovementResponse salida de un movimiento, con el stock resultante del par cuando aplica.
type MovementResponse struct {
	ID              string    `json:"id"`
	WarehouseID     string    `json:"warehouse_id"`
	ProductID       string    `json:"product_id"`
	Quantity        int64     `json:"quantity"`
	TransactionType string    `json:"transaction_type"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       string    `json:"created_by,omitempty"`
	StockAfter      *int64    `json:"stock_after,omitempty"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockResponse stock actual de un par bodega/producto.
type StockResponse struct {
	WarehouseID string     `json:"warehouse_id"`
	ProductID   string     `json:"product_id"`
	Stock       int64      `json:"stock"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// StockListResponse lista paginada de stock.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// DiscrepancyDTO par cuyo stock materializado no coincide con el libro.
type DiscrepancyDTO struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Projected   int64  `json:"projected"`
	Ledger      int64  `json:"ledger"`
	MissingRow  bool   `json:"missing_row"`
}

// AuditResponse resultado de comparar inventario contra libro.
type AuditResponse struct {
	Consistent    bool             `json:"consistent"`
	CheckedAt     time.Time        `json:"checked_at"`
	Discrepancies []DiscrepancyDTO `json:"discrepancies"`
}

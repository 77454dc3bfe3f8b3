package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// InventoryFilter filtros para listar filas de inventario. Limit 0 = sin límite.
type InventoryFilter struct {
	WarehouseID  string
	ProductID    string
	OnlyPositive bool
	Limit        int
	Offset       int
}

// InventoryRepository define el puerto para la proyección de stock por bodega+producto.
// Las escrituras solo deben hacerse desde el reconciliador, dentro de una transacción.
type InventoryRepository interface {
	// Get devuelve (nil, nil) si no existe fila para el par.
	Get(ctx context.Context, warehouseID, productID string) (*entity.InventoryRow, error)
	// GetOrCreateForUpdate crea la fila en 0 si no existe y la bloquea (SELECT FOR UPDATE).
	GetOrCreateForUpdate(ctx context.Context, warehouseID, productID string) (*entity.InventoryRow, error)
	SetStock(ctx context.Context, row *entity.InventoryRow) error
	List(ctx context.Context, filter InventoryFilter) ([]*entity.InventoryRow, error)
	DeleteByWarehouse(ctx context.Context, warehouseID string) (int64, error)
	DeleteByProduct(ctx context.Context, productID string) (int64, error)
}

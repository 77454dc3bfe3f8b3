package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Movements  repository.StockMovementRepository
	Inventory  repository.InventoryRepository
	Warehouses repository.WarehouseRepository
	Products   repository.ProductRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y nada de lo escrito es visible.
// Conflictos de serialización se reintentan; agotados los reintentos devuelve domain.ErrConcurrencyConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
	// RunSnapshot ejecuta fn en una transacción de solo lectura con una única foto de los datos.
	RunSnapshot(ctx context.Context, fn func(repos Repos) error) error
}

package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
)

// MovementFilter filtros para listar movimientos. Limit 0 = sin límite.
type MovementFilter struct {
	WarehouseID     string
	ProductID       string
	TransactionType string
	Limit           int
	Offset          int
}

// StockMovementRepository define el puerto de persistencia del libro de movimientos.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// GetByID y GetForUpdate devuelven (nil, nil) si el movimiento no existe.
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockMovement, error)
	// Update solo modifica quantity y transaction_type.
	Update(ctx context.Context, movement *entity.StockMovement) error
	Delete(ctx context.Context, id string) error
	// List ordena por created_at descendente.
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// ListForUpdate bloquea los movimientos del filtro ordenados por id.
	ListForUpdate(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	DeleteByWarehouse(ctx context.Context, warehouseID string) (int64, error)
	DeleteByProduct(ctx context.Context, productID string) (int64, error)
	// Balances calcula Σ IN − Σ OUT por par según el libro.
	Balances(ctx context.Context, warehouseID, productID string) ([]inventory.LedgerBalance, error)
}

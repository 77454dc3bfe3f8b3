package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
// Los métodos Get* devuelven (nil, nil) si la bodega no existe.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	// GetForShare bloquea la fila en modo compartido (SELECT FOR SHARE) mientras se registra un movimiento.
	GetForShare(ctx context.Context, id string) (*entity.Warehouse, error)
	// GetForUpdate bloquea la fila en exclusiva antes de eliminar la bodega y sus dependientes.
	GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	// List filtra por nombre (contiene, sin distinguir mayúsculas) si name no es vacío.
	List(ctx context.Context, name string, limit, offset int) ([]*entity.Warehouse, error)
	Delete(ctx context.Context, id string) error
}

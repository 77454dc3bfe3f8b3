package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Reconciler es la única autoridad que escribe el stock materializado.
// Traduce cada evento del libro (insert, update, delete) en un delta y lo aplica
// sobre la fila bloqueada, en la misma transacción que escribió el libro.
type Reconciler struct {
	now func() time.Time
}

// NewReconciler construye el reconciliador.
func NewReconciler() *Reconciler {
	return &Reconciler{now: time.Now}
}

// OnInsert aplica el efecto de un movimiento nuevo. Devuelve el stock resultante.
func (r *Reconciler) OnInsert(ctx context.Context, inv repository.InventoryRepository, m *entity.StockMovement) (int64, error) {
	return r.ApplyDelta(ctx, inv, m.WarehouseID, m.ProductID, domaininv.InsertDelta(m))
}

// OnUpdate deshace old y aplica updated como un solo delta: nunca se observa el paso intermedio.
func (r *Reconciler) OnUpdate(ctx context.Context, inv repository.InventoryRepository, old, updated *entity.StockMovement) (int64, error) {
	if old.WarehouseID != updated.WarehouseID || old.ProductID != updated.ProductID {
		return 0, domain.NewValidationError("warehouse_id/product_id", updated.WarehouseID+"/"+updated.ProductID, "no se puede cambiar el par de un movimiento")
	}
	return r.ApplyDelta(ctx, inv, updated.WarehouseID, updated.ProductID, domaininv.UpdateDelta(old, updated))
}

// OnDelete deshace el efecto de un movimiento eliminado (explícito o en cascada).
func (r *Reconciler) OnDelete(ctx context.Context, inv repository.InventoryRepository, m *entity.StockMovement) (int64, error) {
	return r.ApplyDelta(ctx, inv, m.WarehouseID, m.ProductID, domaininv.DeleteDelta(m))
}

// ApplyDelta obtiene o crea la fila del par bajo bloqueo, valida stock >= 0 y escribe.
// Con delta 0 la fila se bloquea igual pero no se reescribe.
func (r *Reconciler) ApplyDelta(ctx context.Context, inv repository.InventoryRepository, warehouseID, productID string, delta int64) (int64, error) {
	row, err := inv.GetOrCreateForUpdate(ctx, warehouseID, productID)
	if err != nil {
		return 0, err
	}
	next, err := domaininv.ApplyDelta(row.Stock, delta)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return row.Stock, &domain.InsufficientStockError{
				WarehouseID: warehouseID,
				ProductID:   productID,
				Current:     row.Stock,
				Delta:       delta,
			}
		}
		return row.Stock, err
	}
	if delta == 0 {
		return row.Stock, nil
	}
	row.Stock = next
	row.UpdatedAt = r.now()
	if err := inv.SetStock(ctx, row); err != nil {
		return 0, err
	}
	return next, nil
}

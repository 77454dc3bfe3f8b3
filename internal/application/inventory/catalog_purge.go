package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	domaininv "github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// PurgeWarehouse elimina una bodega junto con sus movimientos y filas de inventario.
// Cada movimiento se reconcilia antes de borrarse; no se delega en el ON DELETE CASCADE.
func (uc *LedgerUseCase) PurgeWarehouse(ctx context.Context, warehouseID string) error {
	if !isUUID(warehouseID) {
		return domain.ErrNotFound
	}
	err := uc.txRunner.Run(ctx, func(repos Repos) error {
		wh, err := repos.Warehouses.GetForUpdate(ctx, warehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.ErrNotFound
		}
		filter := repository.MovementFilter{WarehouseID: warehouseID}
		if err := uc.purgeMovements(ctx, repos, filter); err != nil {
			return err
		}
		if _, err := repos.Movements.DeleteByWarehouse(ctx, warehouseID); err != nil {
			return err
		}
		if _, err := repos.Inventory.DeleteByWarehouse(ctx, warehouseID); err != nil {
			return err
		}
		return repos.Warehouses.Delete(ctx, warehouseID)
	})
	if err != nil {
		uc.logRejected(err, "eliminar bodega", warehouseID, "", "")
		return err
	}
	uc.log.Info().Str("warehouse_id", warehouseID).Msg("bodega eliminada con sus movimientos")
	return nil
}

// PurgeProduct elimina un producto junto con sus movimientos y filas de inventario en todas las bodegas.
func (uc *LedgerUseCase) PurgeProduct(ctx context.Context, productID string) error {
	if !isUUID(productID) {
		return domain.ErrNotFound
	}
	err := uc.txRunner.Run(ctx, func(repos Repos) error {
		p, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		filter := repository.MovementFilter{ProductID: productID}
		if err := uc.purgeMovements(ctx, repos, filter); err != nil {
			return err
		}
		if _, err := repos.Movements.DeleteByProduct(ctx, productID); err != nil {
			return err
		}
		if _, err := repos.Inventory.DeleteByProduct(ctx, productID); err != nil {
			return err
		}
		return repos.Products.Delete(ctx, productID)
	})
	if err != nil {
		uc.logRejected(err, "eliminar producto", "", productID, "")
		return err
	}
	uc.log.Info().Str("product_id", productID).Msg("producto eliminado con sus movimientos")
	return nil
}

// purgeMovements bloquea los movimientos del filtro, aplica por par el delta que los deshace
// y verifica que las filas afectadas queden en cero. Cualquier otro resultado es deriva
// entre libro e inventario y aborta la transacción.
func (uc *LedgerUseCase) purgeMovements(ctx context.Context, repos Repos, filter repository.MovementFilter) error {
	movs, err := repos.Movements.ListForUpdate(ctx, filter)
	if err != nil {
		return err
	}
	for _, d := range domaininv.RemovalDeltas(movs) {
		stock, err := uc.reconciler.ApplyDelta(ctx, repos.Inventory, d.WarehouseID, d.ProductID, d.Delta)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return uc.drift(d.WarehouseID, d.ProductID, stock+d.Delta)
			}
			return err
		}
		if stock != 0 {
			return uc.drift(d.WarehouseID, d.ProductID, stock)
		}
	}

	// filas con stock pero sin movimientos que las respalden
	rows, err := repos.Inventory.List(ctx, repository.InventoryFilter{
		WarehouseID:  filter.WarehouseID,
		ProductID:    filter.ProductID,
		OnlyPositive: true,
	})
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return uc.drift(rows[0].WarehouseID, rows[0].ProductID, rows[0].Stock)
	}
	return nil
}

func (uc *LedgerUseCase) drift(warehouseID, productID string, remaining int64) error {
	uc.log.Error().
		Str("warehouse_id", warehouseID).
		Str("product_id", productID).
		Int64("remaining", remaining).
		Msg("inventario inconsistente con el libro")
	return fmt.Errorf("%w: bodega %s producto %s quedaría en %d", domain.ErrProjectionDrift, warehouseID, productID, remaining)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de inventario. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// Get obtiene el stock actual de un producto en una bodega.
func (r *InventoryRepo) Get(ctx context.Context, warehouseID, productID string) (*entity.InventoryRow, error) {
	return r.get(ctx, warehouseID, productID, "")
}

// GetOrCreateForUpdate inserta la fila en 0 si no existe y luego la bloquea (SELECT FOR UPDATE).
// Dos transacciones que crean el mismo par a la vez terminan serializadas sobre la misma fila.
func (r *InventoryRepo) GetOrCreateForUpdate(ctx context.Context, warehouseID, productID string) (*entity.InventoryRow, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory (warehouse_id, product_id, stock, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (warehouse_id, product_id) DO NOTHING`,
		warehouseID, productID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.NewValidationError("warehouse_id/product_id", warehouseID+"/"+productID, "bodega o producto inexistente")
		}
		return nil, fmt.Errorf("ensure inventory row: %w", err)
	}
	row, err := r.get(ctx, warehouseID, productID, " FOR UPDATE")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("inventory row %s/%s desapareció tras crearla", warehouseID, productID)
	}
	return row, nil
}

func (r *InventoryRepo) get(ctx context.Context, warehouseID, productID, lock string) (*entity.InventoryRow, error) {
	query := `
		SELECT warehouse_id, product_id, stock, updated_at
		FROM inventory WHERE warehouse_id = $1 AND product_id = $2` + lock
	var row entity.InventoryRow
	err := r.q.QueryRow(ctx, query, warehouseID, productID).Scan(
		&row.WarehouseID, &row.ProductID, &row.Stock, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &row, nil
}

// SetStock escribe el stock calculado por el reconciliador. El CHECK (stock >= 0) de la tabla
// es la última barrera: si salta se reporta como stock insuficiente.
func (r *InventoryRepo) SetStock(ctx context.Context, row *entity.InventoryRow) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory SET stock = $3, updated_at = $4
		WHERE warehouse_id = $1 AND product_id = $2`,
		row.WarehouseID, row.ProductID, row.Stock, row.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return &domain.InsufficientStockError{WarehouseID: row.WarehouseID, ProductID: row.ProductID, Current: row.Stock}
		}
		return fmt.Errorf("update inventory: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista filas de inventario ordenadas por bodega y producto.
func (r *InventoryRepo) List(ctx context.Context, f repository.InventoryFilter) ([]*entity.InventoryRow, error) {
	var w where
	if f.WarehouseID != "" {
		w.add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.ProductID != "" {
		w.add("product_id = $%d", f.ProductID)
	}
	if f.OnlyPositive {
		w.addRaw("stock > 0")
	}
	query := `SELECT warehouse_id, product_id, stock, updated_at FROM inventory` +
		w.String() + ` ORDER BY warehouse_id, product_id` + w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRow
	for rows.Next() {
		var row entity.InventoryRow
		if err := rows.Scan(&row.WarehouseID, &row.ProductID, &row.Stock, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		list = append(list, &row)
	}
	return list, rows.Err()
}

// DeleteByWarehouse borra las filas de la bodega, bloqueándolas antes en orden de producto.
func (r *InventoryRepo) DeleteByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	return r.deleteWhere(ctx, "warehouse_id", warehouseID)
}

// DeleteByProduct borra las filas del producto en todas las bodegas.
func (r *InventoryRepo) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	return r.deleteWhere(ctx, "product_id", productID)
}

func (r *InventoryRepo) deleteWhere(ctx context.Context, column, id string) (int64, error) {
	// bloqueo en orden (warehouse_id, product_id) antes de borrar, igual que el resto de escritores
	lock := `SELECT 1 FROM inventory WHERE ` + column + ` = $1 ORDER BY warehouse_id, product_id FOR UPDATE`
	rows, err := r.q.Query(ctx, lock, id)
	if err != nil {
		return 0, fmt.Errorf("lock inventory: %w", err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("lock inventory: %w", err)
	}

	cmd, err := r.q.Exec(ctx, `DELETE FROM inventory WHERE `+column+` = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete inventory: %w", err)
	}
	return cmd.RowsAffected(), nil
}

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

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, name, location, created_at, updated_at`

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL (usable con pool o tx).
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, name, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, w.ID, w.Name, w.Location, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.get(ctx, id, "")
}

// GetForShare obtiene la bodega con FOR SHARE: impide borrarla mientras se registra un movimiento.
func (r *WarehouseRepo) GetForShare(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.get(ctx, id, " FOR SHARE")
}

// GetForUpdate obtiene la bodega con bloqueo exclusivo.
func (r *WarehouseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *WarehouseRepo) get(ctx context.Context, id, lock string) (*entity.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE id = $1` + lock
	var w entity.Warehouse
	err := r.q.QueryRow(ctx, query, id).Scan(&w.ID, &w.Name, &w.Location, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// Update actualiza nombre y ubicación.
func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	query := `
		UPDATE warehouses SET name = $2, location = $3, updated_at = $4
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, w.ID, w.Name, w.Location, w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista bodegas por nombre con paginación.
func (r *WarehouseRepo) List(ctx context.Context, name string, limit, offset int) ([]*entity.Warehouse, error) {
	var w where
	if name != "" {
		w.addContains("name", name)
	}
	query := `SELECT ` + warehouseColumns + ` FROM warehouses` + w.String() + ` ORDER BY name` + w.page(limit, offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		var wh entity.Warehouse
		if err := rows.Scan(&wh.ID, &wh.Name, &wh.Location, &wh.CreatedAt, &wh.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, &wh)
	}
	return list, rows.Err()
}

// Delete elimina una bodega por ID. Sus movimientos e inventario deben haberse purgado antes.
func (r *WarehouseRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete warehouse: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, warehouse_id, product_id, quantity, transaction_type, created_at, created_by`

// StockMovementRepo implementación del libro de movimientos sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento. created_by vacío se guarda como NULL.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	var createdBy *string
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	_, err := r.q.Exec(ctx, query,
		m.ID, m.WarehouseID, m.ProductID, m.Quantity, m.TransactionType, m.CreatedAt, createdBy,
	)
	if err != nil {
		switch {
		case isCheckViolation(err):
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		case isForeignKeyViolation(err):
			return domain.NewValidationError("created_by", m.CreatedBy, "referencia inexistente")
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate obtiene el movimiento bloqueándolo hasta el fin de la transacción.
func (r *StockMovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockMovement, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *StockMovementRepo) get(ctx context.Context, id, lock string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1` + lock
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// Update cambia cantidad y tipo. Bodega, producto y fecha son inmutables.
func (r *StockMovementRepo) Update(ctx context.Context, m *entity.StockMovement) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE stock_movements SET quantity = $2, transaction_type = $3 WHERE id = $1`,
		m.ID, m.Quantity, m.TransactionType,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return fmt.Errorf("update movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un movimiento por ID.
func (r *StockMovementRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func movementWhere(f repository.MovementFilter) *where {
	w := &where{}
	if f.WarehouseID != "" {
		w.add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.ProductID != "" {
		w.add("product_id = $%d", f.ProductID)
	}
	if f.TransactionType != "" {
		w.add("transaction_type = $%d", f.TransactionType)
	}
	return w
}

// List lista movimientos filtrados, más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	w := movementWhere(f)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + w.String() +
		` ORDER BY created_at DESC, id` + w.page(f.Limit, f.Offset)
	return r.list(ctx, query, w.args)
}

// ListForUpdate bloquea los movimientos del filtro en orden de id; lo usa la purga de catálogo.
func (r *StockMovementRepo) ListForUpdate(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	w := movementWhere(f)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + w.String() + ` ORDER BY id FOR UPDATE`
	return r.list(ctx, query, w.args)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args []any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *StockMovementRepo) DeleteByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE warehouse_id = $1`, warehouseID)
	if err != nil {
		return 0, fmt.Errorf("delete movements by warehouse: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *StockMovementRepo) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete movements by product: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// Balances suma el efecto con signo del libro por par bodega/producto.
func (r *StockMovementRepo) Balances(ctx context.Context, warehouseID, productID string) ([]inventory.LedgerBalance, error) {
	w := movementWhere(repository.MovementFilter{WarehouseID: warehouseID, ProductID: productID})
	query := `
		SELECT warehouse_id, product_id,
		       SUM(CASE WHEN transaction_type = 'IN' THEN quantity ELSE -quantity END)::bigint
		FROM stock_movements` + w.String() + `
		GROUP BY warehouse_id, product_id
		ORDER BY warehouse_id, product_id`
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ledger balances: %w", err)
	}
	defer rows.Close()
	var out []inventory.LedgerBalance
	for rows.Next() {
		var b inventory.LedgerBalance
		if err := rows.Scan(&b.WarehouseID, &b.ProductID, &b.Balance); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var createdBy *string
	if err := row.Scan(&m.ID, &m.WarehouseID, &m.ProductID, &m.Quantity, &m.TransactionType, &m.CreatedAt, &createdBy); err != nil {
		return nil, err
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StockUseCase consultas de solo lectura sobre el inventario materializado.
type StockUseCase struct {
	invRepo  repository.InventoryRepository
	txRunner TxRunner
	now      func() time.Time
}

// NewStockUseCase construye el caso de uso. txRunner se usa para la auditoría (foto consistente).
func NewStockUseCase(invRepo repository.InventoryRepository, txRunner TxRunner) *StockUseCase {
	return &StockUseCase{invRepo: invRepo, txRunner: txRunner, now: time.Now}
}

// GetStock devuelve el stock del par; 0 si nunca tuvo movimientos.
func (uc *StockUseCase) GetStock(ctx context.Context, warehouseID, productID string) (*dto.StockResponse, error) {
	out := &dto.StockResponse{WarehouseID: warehouseID, ProductID: productID}
	if !isUUID(warehouseID) || !isUUID(productID) {
		return out, nil
	}
	row, err := uc.invRepo.Get(ctx, warehouseID, productID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return out, nil
	}
	return toStockResponse(row), nil
}

// ListStock lista filas de inventario filtradas por bodega y/o producto.
func (uc *StockUseCase) ListStock(ctx context.Context, filter repository.InventoryFilter) (*dto.StockListResponse, error) {
	if (filter.WarehouseID != "" && !isUUID(filter.WarehouseID)) || (filter.ProductID != "" && !isUUID(filter.ProductID)) {
		return &dto.StockListResponse{Items: []dto.StockResponse{}, Page: dto.NewPage(filter.Limit, filter.Offset, 0)}, nil
	}
	rows, err := uc.invRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, *toStockResponse(r))
	}
	return &dto.StockListResponse{Items: items, Page: dto.NewPage(filter.Limit, filter.Offset, len(items))}, nil
}

// AuditProjection recalcula Σ IN − Σ OUT desde el libro y reporta los pares cuyo stock
// materializado no coincide. Lee ambas tablas en la misma foto y no corrige nada.
func (uc *StockUseCase) AuditProjection(ctx context.Context, warehouseID, productID string) (*dto.AuditResponse, error) {
	checkedAt := uc.now()
	out := &dto.AuditResponse{Consistent: true, CheckedAt: checkedAt, Discrepancies: []dto.DiscrepancyDTO{}}
	if (warehouseID != "" && !isUUID(warehouseID)) || (productID != "" && !isUUID(productID)) {
		return out, nil
	}
	var (
		rows     []*entity.InventoryRow
		balances []domaininv.LedgerBalance
	)
	err := uc.txRunner.RunSnapshot(ctx, func(repos Repos) error {
		var err error
		rows, err = repos.Inventory.List(ctx, repository.InventoryFilter{WarehouseID: warehouseID, ProductID: productID})
		if err != nil {
			return err
		}
		balances, err = repos.Movements.Balances(ctx, warehouseID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, d := range domaininv.Diff(rows, balances) {
		out.Discrepancies = append(out.Discrepancies, dto.DiscrepancyDTO{
			WarehouseID: d.WarehouseID,
			ProductID:   d.ProductID,
			Projected:   d.Projected,
			Ledger:      d.Ledger,
			MissingRow:  !d.HasRow,
		})
	}
	out.Consistent = len(out.Discrepancies) == 0
	return out, nil
}

func toStockResponse(r *entity.InventoryRow) *dto.StockResponse {
	updatedAt := r.UpdatedAt
	return &dto.StockResponse{
		WarehouseID: r.WarehouseID,
		ProductID:   r.ProductID,
		Stock:       r.Stock,
		UpdatedAt:   &updatedAt,
	}
}

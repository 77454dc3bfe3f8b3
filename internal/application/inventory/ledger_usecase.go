package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// LedgerUseCase registra, corrige y elimina movimientos de stock. Cada operación
// escribe el libro y reconcilia el inventario en una sola transacción (Commit o Rollback).
type LedgerUseCase struct {
	txRunner   TxRunner
	movRepo    repository.StockMovementRepository
	reconciler *Reconciler
	log        *logger.Logger
	now        func() time.Time
}

// NewLedgerUseCase construye el caso de uso. movRepo se usa solo para lecturas fuera de transacción.
func NewLedgerUseCase(txRunner TxRunner, movRepo repository.StockMovementRepository, reconciler *Reconciler, log *logger.Logger) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner:   txRunner,
		movRepo:    movRepo,
		reconciler: reconciler,
		log:        log,
		now:        time.Now,
	}
}

// RecordMovement valida la entrada, bloquea bodega y producto en modo compartido,
// inserta el movimiento y aplica su efecto sobre el inventario.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, userID string, in dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	if err := domaininv.ValidateMovement(in.Quantity, in.TransactionType); err != nil {
		return nil, err
	}
	if !isUUID(in.WarehouseID) {
		return nil, domain.NewValidationError("warehouse_id", in.WarehouseID, "no es un identificador válido")
	}
	if !isUUID(in.ProductID) {
		return nil, domain.NewValidationError("product_id", in.ProductID, "no es un identificador válido")
	}

	var (
		mov   *entity.StockMovement
		stock int64
	)
	err := uc.txRunner.Run(ctx, func(repos Repos) error {
		wh, err := repos.Warehouses.GetForShare(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NewValidationError("warehouse_id", in.WarehouseID, "la bodega no existe")
		}
		p, err := repos.Products.GetForShare(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewValidationError("product_id", in.ProductID, "el producto no existe")
		}

		mov = &entity.StockMovement{
			ID:              uuid.New().String(),
			WarehouseID:     in.WarehouseID,
			ProductID:       in.ProductID,
			Quantity:        in.Quantity,
			TransactionType: in.TransactionType,
			CreatedAt:       uc.now(),
			CreatedBy:       userID,
		}
		if err := repos.Movements.Create(ctx, mov); err != nil {
			return err
		}
		stock, err = uc.reconciler.OnInsert(ctx, repos.Inventory, mov)
		return err
	})
	if err != nil {
		uc.logRejected(err, "registrar movimiento", in.WarehouseID, in.ProductID, "")
		return nil, err
	}

	uc.log.Debug().
		Str("movement_id", mov.ID).
		Str("warehouse_id", mov.WarehouseID).
		Str("product_id", mov.ProductID).
		Int64("stock", stock).
		Msg("movimiento registrado")
	return toMovementResponse(mov, &stock), nil
}

// AmendMovement cambia cantidad y/o tipo de un movimiento existente. El inventario recibe
// un único delta (−efecto anterior + efecto nuevo) evaluado contra el stock bloqueado.
func (uc *LedgerUseCase) AmendMovement(ctx context.Context, id string, in dto.AmendMovementRequest) (*dto.MovementResponse, error) {
	if in.Quantity == nil && in.TransactionType == nil {
		return nil, domain.NewValidationError("body", "{}", "se requiere quantity o transaction_type")
	}
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}

	var (
		updated entity.StockMovement
		stock   int64
	)
	err := uc.txRunner.Run(ctx, func(repos Repos) error {
		old, err := repos.Movements.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return domain.ErrNotFound
		}
		updated = *old
		if in.Quantity != nil {
			updated.Quantity = *in.Quantity
		}
		if in.TransactionType != nil {
			updated.TransactionType = *in.TransactionType
		}
		if err := domaininv.ValidateMovement(updated.Quantity, updated.TransactionType); err != nil {
			return err
		}
		if err := repos.Movements.Update(ctx, &updated); err != nil {
			return err
		}
		stock, err = uc.reconciler.OnUpdate(ctx, repos.Inventory, old, &updated)
		return err
	})
	if err != nil {
		uc.logRejected(err, "corregir movimiento", updated.WarehouseID, updated.ProductID, id)
		return nil, err
	}
	return toMovementResponse(&updated, &stock), nil
}

// RemoveMovement elimina un movimiento y deshace su efecto. Si el inventario quedaría
// negativo el borrado se rechaza y el movimiento permanece.
func (uc *LedgerUseCase) RemoveMovement(ctx context.Context, id string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	var pair domaininv.PairKey
	err := uc.txRunner.Run(ctx, func(repos Repos) error {
		m, err := repos.Movements.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.ErrNotFound
		}
		pair = domaininv.PairKey{WarehouseID: m.WarehouseID, ProductID: m.ProductID}
		if err := repos.Movements.Delete(ctx, id); err != nil {
			return err
		}
		_, err = uc.reconciler.OnDelete(ctx, repos.Inventory, m)
		return err
	})
	if err != nil {
		uc.logRejected(err, "eliminar movimiento", pair.WarehouseID, pair.ProductID, id)
	}
	return err
}

// GetMovement obtiene un movimiento por ID. Devuelve (nil, nil) si no existe.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	if !isUUID(id) {
		return nil, nil
	}
	m, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return toMovementResponse(m, nil), nil
}

// ListMovements lista movimientos filtrados, más recientes primero.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.TransactionType != "" && !entity.IsValidTransactionType(filter.TransactionType) {
		return nil, domain.NewValidationError("transaction_type", filter.TransactionType, "debe ser IN u OUT")
	}
	if (filter.WarehouseID != "" && !isUUID(filter.WarehouseID)) || (filter.ProductID != "" && !isUUID(filter.ProductID)) {
		return &dto.MovementListResponse{Items: []dto.MovementResponse{}, Page: dto.NewPage(filter.Limit, filter.Offset, 0)}, nil
	}
	list, err := uc.movRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMovementResponse(m, nil))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.NewPage(filter.Limit, filter.Offset, len(items)),
	}, nil
}

// logRejected registra rechazos de negocio en warn y el resto en error.
func (uc *LedgerUseCase) logRejected(err error, op, warehouseID, productID, movementID string) {
	level := zerolog.ErrorLevel
	switch {
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNotFound):
		level = zerolog.WarnLevel
	}
	uc.log.WithLevel(level).
		Err(err).
		Str("op", op).
		Str("warehouse_id", warehouseID).
		Str("product_id", productID).
		Str("movement_id", movementID).
		Msg("movimiento rechazado")
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func toMovementResponse(m *entity.StockMovement, stockAfter *int64) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:              m.ID,
		WarehouseID:     m.WarehouseID,
		ProductID:       m.ProductID,
		Quantity:        m.Quantity,
		TransactionType: m.TransactionType,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
		StockAfter:      stockAfter,
	}
}

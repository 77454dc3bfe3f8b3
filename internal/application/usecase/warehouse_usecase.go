package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// CatalogPurger elimina bodegas y productos junto con su libro e inventario,
// reconciliando cada movimiento antes de borrarlo.
type CatalogPurger interface {
	PurgeWarehouse(ctx context.Context, warehouseID string) error
	PurgeProduct(ctx context.Context, productID string) error
}

// WarehouseUseCase casos de uso CRUD para bodegas.
type WarehouseUseCase struct {
	repo   repository.WarehouseRepository
	purger CatalogPurger
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository, purger CatalogPurger) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, purger: purger}
}

// Create crea una nueva bodega. El nombre es único.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", in.Name, "no puede estar vacío")
	}
	now := time.Now()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      name,
		Location:  strings.TrimSpace(in.Location),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID. Devuelve (nil, nil) si no existe.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	if !isUUID(id) {
		return nil, nil
	}
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, nil
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza nombre y/o ubicación. Devuelve (nil, nil) si no existe.
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	if !isUUID(id) {
		return nil, nil
	}
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, nil
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", *in.Name, "no puede estar vacío")
		}
		warehouse.Name = name
	}
	if in.Location != nil {
		warehouse.Location = strings.TrimSpace(*in.Location)
	}
	warehouse.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas con filtro opcional por nombre y paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, name string, limit, offset int) (*dto.WarehouseListResponse, error) {
	list, err := uc.repo.List(ctx, strings.TrimSpace(name), limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.NewPage(limit, offset, len(items)),
	}, nil
}

// Delete elimina la bodega con sus movimientos e inventario en una sola transacción.
func (uc *WarehouseUseCase) Delete(ctx context.Context, id string) error {
	return uc.purger.PurgeWarehouse(ctx, id)
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Location:  w.Location,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

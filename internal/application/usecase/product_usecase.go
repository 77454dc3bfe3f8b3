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

// ProductUseCase casos de uso CRUD para productos. El stock se maneja vía movimientos.
type ProductUseCase struct {
	repo   repository.ProductRepository
	purger CatalogPurger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, purger CatalogPurger) *ProductUseCase {
	return &ProductUseCase{repo: repo, purger: purger}
}

// Create crea un nuevo producto.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", in.Name, "no puede estar vacío")
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID. Devuelve (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	if !isUUID(id) {
		return nil, nil
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto existente.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if !isUUID(id) {
		return nil, nil
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", *in.Name, "no puede estar vacío")
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con filtro opcional por nombre.
func (uc *ProductUseCase) List(ctx context.Context, name string, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, strings.TrimSpace(name), limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.NewPage(limit, offset, len(items)),
	}, nil
}

// Delete elimina el producto en todas las bodegas junto con sus movimientos.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	return uc.purger.PurgeProduct(ctx, id)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

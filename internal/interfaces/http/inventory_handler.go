package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// LedgerService operaciones sobre el libro de movimientos (lo implementa *inventory.LedgerUseCase).
type LedgerService interface {
	RecordMovement(ctx context.Context, userID string, in dto.RecordMovementRequest) (*dto.MovementResponse, error)
	AmendMovement(ctx context.Context, id string, in dto.AmendMovementRequest) (*dto.MovementResponse, error)
	RemoveMovement(ctx context.Context, id string) error
	GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error)
}

// StockService consultas de stock y auditoría (lo implementa *inventory.StockUseCase).
type StockService interface {
	GetStock(ctx context.Context, warehouseID, productID string) (*dto.StockResponse, error)
	ListStock(ctx context.Context, filter repository.InventoryFilter) (*dto.StockListResponse, error)
	AuditProjection(ctx context.Context, warehouseID, productID string) (*dto.AuditResponse, error)
}

// InventoryHandler maneja las peticiones HTTP de movimientos e inventario (protegido).
type InventoryHandler struct {
	ledger LedgerService
	stock  StockService
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger LedgerService, stock StockService) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, stock: stock}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "warehouse_id, product_id, quantity, transaction_type (IN|OUT)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.ledger.RecordMovement(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// AmendMovement godoc
// @Summary      Corregir cantidad o tipo de un movimiento
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del movimiento"
// @Param        body  body  dto.AmendMovementRequest  true  "quantity y/o transaction_type"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [patch]
func (h *InventoryHandler) AmendMovement(c *fiber.Ctx) error {
	var in dto.AmendMovementRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.ledger.AmendMovement(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RemoveMovement godoc
// @Summary      Eliminar movimiento
// @Description  Deshace su efecto; se rechaza si el stock quedaría negativo.
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del movimiento"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [delete]
func (h *InventoryHandler) RemoveMovement(c *fiber.Ctx) error {
	if err := h.ledger.RemoveMovement(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.ledger.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		return notFound(c, "movimiento no encontrado")
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id      query  string  false  "Bodega"
// @Param        product_id        query  string  false  "Producto"
// @Param        transaction_type  query  string  false  "IN | OUT"
// @Param        limit             query  int     false  "Límite"  default(20)
// @Param        offset            query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.ledger.ListMovements(c.UserContext(), repository.MovementFilter{
		WarehouseID:     c.Query("warehouse_id"),
		ProductID:       c.Query("product_id"),
		TransactionType: strings.ToUpper(c.Query("transaction_type")),
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Stock actual de un producto en una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path  string  true  "Bodega"
// @Param        product_id    path  string  true  "Producto"
// @Success      200  {object}  dto.StockResponse
// @Router       /api/inventory/stock/{warehouse_id}/{product_id} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.stock.GetStock(c.UserContext(), c.Params("warehouse_id"), c.Params("product_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListStock godoc
// @Summary      Listar stock por bodega y/o producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id   query  string  false  "Bodega"
// @Param        product_id     query  string  false  "Producto"
// @Param        only_positive  query  bool    false  "Solo stock > 0"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) ListStock(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.stock.ListStock(c.UserContext(), repository.InventoryFilter{
		WarehouseID:  c.Query("warehouse_id"),
		ProductID:    c.Query("product_id"),
		OnlyPositive: c.QueryBool("only_positive", false),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Audit godoc
// @Summary      Auditar inventario contra el libro
// @Description  Recalcula Σ IN − Σ OUT por par y lista las diferencias. No corrige nada.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        product_id    query  string  false  "Producto"
// @Success      200  {object}  dto.AuditResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/audit [get]
func (h *InventoryHandler) Audit(c *fiber.Ctx) error {
	out, err := h.stock.AuditProjection(c.UserContext(), c.Query("warehouse_id"), c.Query("product_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

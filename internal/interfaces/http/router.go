package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC *usecase.WarehouseUseCase
	ProductUC   *usecase.ProductUseCase
	Ledger      LedgerService
	Stock       StockService
	AuthUC      *auth.AuthUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	requireAuth := AuthMiddleware(deps.JWTSecret)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Auth (register y login públicos)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Patch("/users/:id/role", requireAuth, adminOnly, authHandler.AssignRole)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", requireAuth)
	stockWriters := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Post("/", adminOnly, warehouseHandler.Create)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", adminOnly, warehouseHandler.Update)
	warehouses.Delete("/:id", adminOnly, warehouseHandler.Delete)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	RegisterInventoryRoutes(protected.Group("/inventory"), NewInventoryHandler(deps.Ledger, deps.Stock), stockWriters, adminOnly)
}

// RegisterInventoryRoutes monta movimientos, stock y auditoría sobre un grupo ya autenticado.
func RegisterInventoryRoutes(inv fiber.Router, h *InventoryHandler, writers, auditors fiber.Handler) {
	inv.Get("/stock", h.ListStock)
	inv.Get("/stock/:warehouse_id/:product_id", h.GetStock)

	inv.Get("/movements", h.ListMovements)
	inv.Post("/movements", writers, h.RecordMovement)
	inv.Get("/movements/:id", h.GetMovement)
	inv.Patch("/movements/:id", writers, h.AmendMovement)
	inv.Delete("/movements/:id", writers, h.RemoveMovement)

	inv.Get("/audit", auditors, h.Audit)
}

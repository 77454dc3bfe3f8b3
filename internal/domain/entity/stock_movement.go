package entity

import "time"

// Tipos de transacción de un movimiento de stock.
const (
	TransactionTypeIN  = "IN"  // entrada
	TransactionTypeOUT = "OUT" // salida
)

// StockMovement es una entrada del libro de movimientos.
// Quantity siempre es positiva; el signo lo da TransactionType.
type StockMovement struct {
	ID              string
	WarehouseID     string
	ProductID       string
	Quantity        int64
	TransactionType string
	CreatedAt       time.Time
	CreatedBy       string // UserID, vacío si no hay usuario
}

// IsValidTransactionType indica si t es IN u OUT.
func IsValidTransactionType(t string) bool {
	return t == TransactionTypeIN || t == TransactionTypeOUT
}

package inventory

import (
	"sort"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Reglas puras de reconciliación libro -> inventario (servicio de dominio).
// No tocan persistencia: el caso de uso aplica el delta bajo bloqueo de fila.

// SignedEffect devuelve +Quantity para IN y -Quantity para OUT.
func SignedEffect(m *entity.StockMovement) int64 {
	if m.TransactionType == entity.TransactionTypeIN {
		return m.Quantity
	}
	return -m.Quantity
}

// InsertDelta delta a aplicar cuando se inserta m.
func InsertDelta(m *entity.StockMovement) int64 {
	return SignedEffect(m)
}

// UpdateDelta deshace el efecto de old y aplica el de updated como un único delta.
func UpdateDelta(old, updated *entity.StockMovement) int64 {
	return SignedEffect(updated) - SignedEffect(old)
}

// DeleteDelta delta a aplicar cuando se elimina m (explícito o en cascada).
func DeleteDelta(m *entity.StockMovement) int64 {
	return -SignedEffect(m)
}

// ApplyDelta calcula el nuevo stock. Nunca recorta a cero: si el resultado es negativo
// devuelve ErrInsufficientStock y el stock actual.
func ApplyDelta(current, delta int64) (int64, error) {
	next := current + delta
	if (delta > 0 && next < current) || (delta < 0 && next > current) {
		return current, domain.NewValidationError("quantity", delta, "desborde de stock")
	}
	if next < 0 {
		return current, domain.ErrInsufficientStock
	}
	return next, nil
}

// ValidateMovement verifica cantidad positiva y tipo IN/OUT.
func ValidateMovement(quantity int64, transactionType string) error {
	if quantity <= 0 {
		return domain.NewValidationError("quantity", quantity, "debe ser mayor que cero")
	}
	if !entity.IsValidTransactionType(transactionType) {
		return domain.NewValidationError("transaction_type", transactionType, "debe ser IN u OUT")
	}
	return nil
}

// PairKey identifica una fila de inventario.
type PairKey struct {
	WarehouseID string
	ProductID   string
}

// PairDelta delta agregado para un par bodega/producto.
type PairDelta struct {
	PairKey
	Delta int64
}

// RemovalDeltas agrupa por par el delta que deshace todos los movimientos dados.
// El resultado va ordenado por (bodega, producto) para bloquear filas siempre en el mismo orden.
func RemovalDeltas(movements []*entity.StockMovement) []PairDelta {
	acc := make(map[PairKey]int64)
	for _, m := range movements {
		k := PairKey{WarehouseID: m.WarehouseID, ProductID: m.ProductID}
		acc[k] += DeleteDelta(m)
	}
	out := make([]PairDelta, 0, len(acc))
	for k, d := range acc {
		out = append(out, PairDelta{PairKey: k, Delta: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// LedgerBalance saldo Σ IN − Σ OUT de un par según el libro.
type LedgerBalance struct {
	PairKey
	Balance int64
}

// Discrepancy par cuyo stock materializado difiere del saldo del libro.
// HasRow es falso cuando el libro tiene movimientos pero no existe fila de inventario.
type Discrepancy struct {
	PairKey
	Projected int64
	Ledger    int64
	HasRow    bool
}

// Diff compara filas materializadas contra saldos del libro y devuelve las diferencias,
// ordenadas por (bodega, producto). Una fila en cero sin movimientos no es discrepancia;
// un par con movimientos y sin fila sí lo es, aunque su saldo sea cero.
func Diff(rows []*entity.InventoryRow, balances []LedgerBalance) []Discrepancy {
	type state struct {
		projected, ledger int64
		hasRow            bool
	}
	pairs := make(map[PairKey]*state)
	get := func(k PairKey) *state {
		s, ok := pairs[k]
		if !ok {
			s = &state{}
			pairs[k] = s
		}
		return s
	}
	for _, r := range rows {
		s := get(PairKey{WarehouseID: r.WarehouseID, ProductID: r.ProductID})
		s.projected = r.Stock
		s.hasRow = true
	}
	for _, b := range balances {
		get(b.PairKey).ledger = b.Balance
	}

	var out []Discrepancy
	for k, s := range pairs {
		if s.hasRow && s.projected == s.ledger {
			continue
		}
		out = append(out, Discrepancy{PairKey: k, Projected: s.projected, Ledger: s.ledger, HasRow: s.hasRow})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

package inventory_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// memStore simula la base de datos: una transacción a la vez (mutex global) y
// rollback restaurando una copia tomada al inicio de la transacción.
type memStore struct {
	mu         sync.Mutex
	warehouses map[string]entity.Warehouse
	products   map[string]entity.Product
	inventory  map[domaininv.PairKey]entity.InventoryRow
	movements  map[string]entity.StockMovement

	failSetStock error
	commits      int
}

func newMemStore() *memStore {
	return &memStore{
		warehouses: map[string]entity.Warehouse{},
		products:   map[string]entity.Product{},
		inventory:  map[domaininv.PairKey]entity.InventoryRow{},
		movements:  map[string]entity.StockMovement{},
	}
}

type memSnapshot struct {
	warehouses map[string]entity.Warehouse
	products   map[string]entity.Product
	inventory  map[domaininv.PairKey]entity.InventoryRow
	movements  map[string]entity.StockMovement
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		warehouses: copyMap(s.warehouses),
		products:   copyMap(s.products),
		inventory:  copyMap(s.inventory),
		movements:  copyMap(s.movements),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.warehouses = snap.warehouses
	s.products = snap.products
	s.inventory = snap.inventory
	s.movements = snap.movements
}

// guard bloquea el store cuando el repositorio se usa fuera de transacción.
func (s *memStore) guard(auto bool) func() {
	if !auto {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) addWarehouse(name string) string {
	id := uuid.New().String()
	s.warehouses[id] = entity.Warehouse{ID: id, Name: name}
	return id
}

func (s *memStore) addProduct(name string) string {
	id := uuid.New().String()
	s.products[id] = entity.Product{ID: id, Name: name}
	return id
}

func (s *memStore) stock(w, p string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.inventory[domaininv.PairKey{WarehouseID: w, ProductID: p}]
	return row.Stock, ok
}

func (s *memStore) ledgerSum(w, p string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, m := range s.movements {
		if m.WarehouseID == w && m.ProductID == p {
			m := m
			sum += domaininv.SignedEffect(&m)
		}
	}
	return sum
}

func (s *memStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

func (s *memStore) repos(auto bool) inventory.Repos {
	return inventory.Repos{
		Movements:  &memMovements{s: s, auto: auto},
		Inventory:  &memInventory{s: s, auto: auto},
		Warehouses: &memWarehouses{s: s, auto: auto},
		Products:   &memProducts{s: s, auto: auto},
	}
}

// memTxRunner implementa inventory.TxRunner sobre memStore.
type memTxRunner struct{ s *memStore }

func (r *memTxRunner) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := r.s.snapshot()
	if err := fn(r.s.repos(false)); err != nil {
		r.s.restore(snap)
		return err
	}
	r.s.commits++
	return nil
}

func (r *memTxRunner) RunSnapshot(ctx context.Context, fn func(repos inventory.Repos) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(r.s.repos(false))
}

type memWarehouses struct {
	s    *memStore
	auto bool
}

func (r *memWarehouses) Create(_ context.Context, w *entity.Warehouse) error {
	defer r.s.guard(r.auto)()
	for _, existing := range r.s.warehouses {
		if existing.Name == w.Name {
			return domain.ErrDuplicate
		}
	}
	r.s.warehouses[w.ID] = *w
	return nil
}

func (r *memWarehouses) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	defer r.s.guard(r.auto)()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *memWarehouses) GetForShare(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.GetByID(ctx, id)
}

func (r *memWarehouses) GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.GetByID(ctx, id)
}

func (r *memWarehouses) Update(_ context.Context, w *entity.Warehouse) error {
	defer r.s.guard(r.auto)()
	r.s.warehouses[w.ID] = *w
	return nil
}

func (r *memWarehouses) List(_ context.Context, name string, limit, offset int) ([]*entity.Warehouse, error) {
	defer r.s.guard(r.auto)()
	var out []*entity.Warehouse
	for _, w := range r.s.warehouses {
		if name == "" || strings.Contains(strings.ToLower(w.Name), strings.ToLower(name)) {
			w := w
			out = append(out, &w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r *memWarehouses) Delete(_ context.Context, id string) error {
	defer r.s.guard(r.auto)()
	delete(r.s.warehouses, id)
	return nil
}

type memProducts struct {
	s    *memStore
	auto bool
}

func (r *memProducts) Create(_ context.Context, p *entity.Product) error {
	defer r.s.guard(r.auto)()
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.s.guard(r.auto)()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memProducts) GetForShare(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *memProducts) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *memProducts) Update(_ context.Context, p *entity.Product) error {
	defer r.s.guard(r.auto)()
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProducts) List(_ context.Context, _ string, limit, offset int) ([]*entity.Product, error) {
	defer r.s.guard(r.auto)()
	var out []*entity.Product
	for _, p := range r.s.products {
		p := p
		out = append(out, &p)
	}
	return page(out, limit, offset), nil
}

func (r *memProducts) Delete(_ context.Context, id string) error {
	defer r.s.guard(r.auto)()
	delete(r.s.products, id)
	return nil
}

type memInventory struct {
	s    *memStore
	auto bool
}

func (r *memInventory) Get(_ context.Context, w, p string) (*entity.InventoryRow, error) {
	defer r.s.guard(r.auto)()
	row, ok := r.s.inventory[domaininv.PairKey{WarehouseID: w, ProductID: p}]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *memInventory) GetOrCreateForUpdate(_ context.Context, w, p string) (*entity.InventoryRow, error) {
	defer r.s.guard(r.auto)()
	k := domaininv.PairKey{WarehouseID: w, ProductID: p}
	row, ok := r.s.inventory[k]
	if !ok {
		row = entity.InventoryRow{WarehouseID: w, ProductID: p, UpdatedAt: time.Now()}
		r.s.inventory[k] = row
	}
	return &row, nil
}

func (r *memInventory) SetStock(_ context.Context, row *entity.InventoryRow) error {
	defer r.s.guard(r.auto)()
	if r.s.failSetStock != nil {
		return r.s.failSetStock
	}
	if row.Stock < 0 {
		return domain.ErrInsufficientStock
	}
	r.s.inventory[domaininv.PairKey{WarehouseID: row.WarehouseID, ProductID: row.ProductID}] = *row
	return nil
}

func (r *memInventory) List(_ context.Context, f repository.InventoryFilter) ([]*entity.InventoryRow, error) {
	defer r.s.guard(r.auto)()
	var out []*entity.InventoryRow
	for _, row := range r.s.inventory {
		if f.WarehouseID != "" && row.WarehouseID != f.WarehouseID {
			continue
		}
		if f.ProductID != "" && row.ProductID != f.ProductID {
			continue
		}
		if f.OnlyPositive && row.Stock <= 0 {
			continue
		}
		row := row
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *memInventory) DeleteByWarehouse(_ context.Context, w string) (int64, error) {
	defer r.s.guard(r.auto)()
	var n int64
	for k := range r.s.inventory {
		if k.WarehouseID == w {
			delete(r.s.inventory, k)
			n++
		}
	}
	return n, nil
}

func (r *memInventory) DeleteByProduct(_ context.Context, p string) (int64, error) {
	defer r.s.guard(r.auto)()
	var n int64
	for k := range r.s.inventory {
		if k.ProductID == p {
			delete(r.s.inventory, k)
			n++
		}
	}
	return n, nil
}

type memMovements struct {
	s    *memStore
	auto bool
}

func (r *memMovements) Create(_ context.Context, m *entity.StockMovement) error {
	defer r.s.guard(r.auto)()
	r.s.movements[m.ID] = *m
	return nil
}

func (r *memMovements) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	defer r.s.guard(r.auto)()
	m, ok := r.s.movements[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *memMovements) GetForUpdate(ctx context.Context, id string) (*entity.StockMovement, error) {
	return r.GetByID(ctx, id)
}

func (r *memMovements) Update(_ context.Context, m *entity.StockMovement) error {
	defer r.s.guard(r.auto)()
	r.s.movements[m.ID] = *m
	return nil
}

func (r *memMovements) Delete(_ context.Context, id string) error {
	defer r.s.guard(r.auto)()
	delete(r.s.movements, id)
	return nil
}

func (r *memMovements) match(f repository.MovementFilter) []*entity.StockMovement {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
			continue
		}
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.TransactionType != "" && m.TransactionType != f.TransactionType {
			continue
		}
		m := m
		out = append(out, &m)
	}
	return out
}

func (r *memMovements) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	defer r.s.guard(r.auto)()
	out := r.match(f)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *memMovements) ListForUpdate(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	defer r.s.guard(r.auto)()
	out := r.match(f)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMovements) DeleteByWarehouse(_ context.Context, w string) (int64, error) {
	defer r.s.guard(r.auto)()
	var n int64
	for id, m := range r.s.movements {
		if m.WarehouseID == w {
			delete(r.s.movements, id)
			n++
		}
	}
	return n, nil
}

func (r *memMovements) DeleteByProduct(_ context.Context, p string) (int64, error) {
	defer r.s.guard(r.auto)()
	var n int64
	for id, m := range r.s.movements {
		if m.ProductID == p {
			delete(r.s.movements, id)
			n++
		}
	}
	return n, nil
}

func (r *memMovements) Balances(_ context.Context, w, p string) ([]domaininv.LedgerBalance, error) {
	defer r.s.guard(r.auto)()
	acc := map[domaininv.PairKey]int64{}
	for _, m := range r.match(repository.MovementFilter{WarehouseID: w, ProductID: p}) {
		acc[domaininv.PairKey{WarehouseID: m.WarehouseID, ProductID: m.ProductID}] += domaininv.SignedEffect(m)
	}
	out := make([]domaininv.LedgerBalance, 0, len(acc))
	for k, b := range acc {
		out = append(out, domaininv.LedgerBalance{PairKey: k, Balance: b})
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

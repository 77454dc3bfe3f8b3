package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Fallos de serialización y deadlocks se reintentan con backoff exponencial.
type TxRunner struct {
	pool       *pgxpool.Pool
	maxRetries int
	log        *logger.Logger
	newBackOff func() backoff.BackOff
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, maxRetries int, log *logger.Logger) *TxRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &TxRunner{
		pool:       pool,
		maxRetries: maxRetries,
		log:        log,
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 0 // el tope lo pone maxRetries
	return b
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	return r.retry(ctx, func() error { return r.runOnce(ctx, pgx.TxOptions{}, fn) })
}

// RunSnapshot ejecuta fn en REPEATABLE READ de solo lectura: todas las consultas ven la misma foto.
func (r *TxRunner) RunSnapshot(ctx context.Context, fn func(repos inventory.Repos) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return r.retry(ctx, func() error { return r.runOnce(ctx, opts, fn) })
}

// retry repite once mientras falle por serialización o deadlock, hasta maxRetries veces.
func (r *TxRunner) retry(ctx context.Context, once func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := once()
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			r.log.Warn().Err(err).Int("attempt", attempt).Msg("conflicto de concurrencia, reintentando transacción")
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.maxRetries)), ctx)
	err := backoff.Retry(op, b)
	if err != nil && isRetryable(err) {
		r.log.Error().Err(err).Int("attempts", attempt).Msg("reintentos agotados")
		return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, opts pgx.TxOptions, fn func(repos inventory.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ReposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReposFor construye los repositorios sobre un Querier (pool o tx).
func ReposFor(q Querier) inventory.Repos {
	return inventory.Repos{
		Movements:  NewStockMovementRepository(q),
		Inventory:  NewInventoryRepository(q),
		Warehouses: NewWarehouseRepository(q),
		Products:   NewProductRepository(q),
	}
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier es lo que comparten *pgxpool.Pool y pgx.Tx; los repositorios funcionan con cualquiera.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Códigos SQLSTATE usados por los adaptadores.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

func isCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}

// isRetryable: fallo de serialización o deadlock; la transacción completa puede repetirse.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// where acumula condiciones con placeholders $n consecutivos.
type where struct {
	conds []string
	args  []any
}

// add agrega una condición; format lleva un %d que se reemplaza por la posición del argumento.
func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

// addContains agrega "column contiene text" sin distinguir mayúsculas. % y _ del texto se buscan literalmente.
func (w *where) addContains(column, text string) {
	w.add(column+` ILIKE $%d ESCAPE '\'`, "%"+escapeLike(text)+"%")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutraliza los comodines de LIKE (escape = '\').
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (w *where) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page agrega LIMIT/OFFSET. limit 0 = sin límite.
func (w *where) page(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		w.args = append(w.args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(w.args))
	}
	if offset > 0 {
		w.args = append(w.args, offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(w.args))
	}
	return b.String()
}

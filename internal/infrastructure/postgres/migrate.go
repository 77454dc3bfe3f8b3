package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate aplica el esquema (idempotente). Sin argumentos pgx usa el protocolo simple,
// así que el archivo completo se ejecuta en un solo Exec.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

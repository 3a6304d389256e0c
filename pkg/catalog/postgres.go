package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadPostgres introspects a PostgreSQL database and builds a catalog from
// information_schema. Only base tables in non-system schemas are included.
func LoadPostgres(ctx context.Context, connString string) (*SchemaCatalog, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	return loadPostgresFromPool(ctx, pool)
}

func loadPostgresFromPool(ctx context.Context, pool *pgxpool.Pool) (*SchemaCatalog, error) {
	rows, err := pool.Query(ctx, `
		SELECT c.table_name, c.column_name
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE t.table_type = 'BASE TABLE'
		  AND c.table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY c.table_name, c.ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("query information_schema: %w", err)
	}
	defer rows.Close()

	b := NewBuilder()
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		b.AddTable(table, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read column rows: %w", err)
	}

	return b.Build()
}

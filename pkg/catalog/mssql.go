package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
)

// LoadMSSQL introspects a SQL Server database and builds a catalog from
// INFORMATION_SCHEMA.
func LoadMSSQL(ctx context.Context, connString string) (*SchemaCatalog, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT c.TABLE_NAME, c.COLUMN_NAME
		FROM INFORMATION_SCHEMA.COLUMNS c
		JOIN INFORMATION_SCHEMA.TABLES t
		  ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
		WHERE t.TABLE_TYPE = 'BASE TABLE'
		ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`)
	if err != nil {
		return nil, fmt.Errorf("query INFORMATION_SCHEMA: %w", err)
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

// internal/repository/postgres/inventory_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/jmoiron/sqlx"
)

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) ListSnapshot(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryRecord, error) {
	where, args := buildSnapshotFilterClause(filter, "i", 1)
	query := `
        SELECT
            i.snapshot_date, i.product_id, i.product_name, i.category,
            i.store_id, i.store_name, i.avg_sales_per_day, i.current_stock, i.min_stock
        FROM inventory_snapshot i
        WHERE 1=1` + where + `
        ORDER BY i.product_id, i.store_id, i.source_row
    `

	var rows []domain.InventoryRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error listing inventory snapshot: %w", err)
	}

	return rows, nil
}

func (r *inventoryRepository) ListStores(ctx context.Context) ([]domain.Store, error) {
	query := `
		SELECT DISTINCT store_id, store_name
		FROM inventory_snapshot
		WHERE snapshot_date = (SELECT MAX(snapshot_date) FROM inventory_snapshot)
		ORDER BY store_name
	`

	var stores []domain.Store
	if err := sqlx.SelectContext(ctx, r.db, &stores, query); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	return stores, nil
}

func (r *inventoryRepository) LatestSnapshotDate(ctx context.Context) (string, error) {
	var date sql.NullString
	err := sqlx.GetContext(ctx, r.db, &date, `SELECT TO_CHAR(MAX(snapshot_date), 'YYYY-MM-DD') FROM inventory_snapshot`)
	if err != nil {
		return "", fmt.Errorf("failed to get latest snapshot date: %w", err)
	}
	return date.String, nil
}

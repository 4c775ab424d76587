package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/domain"
)

// IngestRepository loads snapshot rows into inventory_snapshot.
// It works on a plain *sql.DB so the CLI can use the pgx stdlib driver.
type IngestRepository struct {
	db *sql.DB
}

func NewIngestRepository(db *sql.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

// ReplaceSnapshot swaps every row of date for records in one transaction and
// returns the number written. Rows repeating a product×store must carry
// distinct SourceRow values; they are stored side by side, never merged.
func (r *IngestRepository) ReplaceSnapshot(ctx context.Context, date time.Time, records []domain.InventoryRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_snapshot WHERE snapshot_date = $1`, date); err != nil {
		return 0, fmt.Errorf("failed to clear snapshot %s: %w", date.Format("2006-01-02"), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inventory_snapshot (
			snapshot_date, product_id, store_id, source_row, product_name, category,
			store_name, avg_sales_per_day, current_stock, min_stock
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			date, rec.ProductID, rec.StoreID, rec.SourceRow, rec.ProductName, rec.Category,
			rec.StoreName, rec.AvgSalesPerDay, rec.CurrentStock, rec.MinStock,
		); err != nil {
			return written, fmt.Errorf("failed to insert inventory %s/%s: %w", rec.ProductID, rec.StoreID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit inventory: %w", err)
	}
	return written, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/jmoiron/sqlx"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) SaveOrder(ctx context.Context, order *domain.ReplenishmentOrder) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO replenishment_orders (
				id, planning_days, buffer_days, buffer_mode, created_by, created_at
			) VALUES (
				:id, :planning_days, :buffer_days, :buffer_mode, :created_by, :created_at
			)
		`, order); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Lines {
			order.Lines[i].OrderID = order.ID
		}
		if len(order.Lines) == 0 {
			return nil
		}

		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO replenishment_order_lines (
				order_id, product_id, product_name, store_id, store_name,
				priority, urgent_qty, planned_qty, recommended_qty
			) VALUES (
				:order_id, :product_id, :product_name, :store_id, :store_name,
				:priority, :urgent_qty, :planned_qty, :recommended_qty
			)
		`, order.Lines); err != nil {
			return fmt.Errorf("failed to insert order lines: %w", err)
		}

		return nil
	})
}

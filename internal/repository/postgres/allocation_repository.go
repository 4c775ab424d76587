// internal/repository/postgres/allocation_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type allocationRepository struct {
	db *DB
}

func NewAllocationRepository(db *DB) *allocationRepository {
	return &allocationRepository{db: db}
}

// CommitAllocation writes the header and all lines in one transaction.
func (r *allocationRepository) CommitAllocation(ctx context.Context, commit *domain.AllocationCommit) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO allocation_commits (
				id, product_id, produced_quantity, planning_days,
				buffer_days, buffer_mode, committed_by, committed_at
			) VALUES (
				:id, :product_id, :produced_quantity, :planning_days,
				:buffer_days, :buffer_mode, :committed_by, :committed_at
			)
		`, commit)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return fmt.Errorf("allocation %s: %w", commit.ID, domain.ErrAlreadyCommitted)
			}
			return fmt.Errorf("failed to insert allocation: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO allocation_commit_lines (allocation_id, store_id, store_name, quantity)
			VALUES ($1, $2, $3, $4)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, line := range commit.Lines {
			if _, err := stmt.ExecContext(ctx, commit.ID, line.StoreID, line.StoreName, line.Quantity); err != nil {
				return fmt.Errorf("failed to insert allocation line: %w", err)
			}
		}

		return nil
	})
}

func (r *allocationRepository) GetAllocation(ctx context.Context, id string) (*domain.AllocationCommit, error) {
	var commit domain.AllocationCommit
	err := sqlx.GetContext(ctx, r.db, &commit, `
		SELECT id, product_id, produced_quantity, planning_days,
		       buffer_days, buffer_mode, committed_by, committed_at
		FROM allocation_commits
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("allocation %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}

	if err := sqlx.SelectContext(ctx, r.db, &commit.Lines, `
		SELECT allocation_id, store_id, store_name, quantity
		FROM allocation_commit_lines
		WHERE allocation_id = $1
		ORDER BY store_id
	`, id); err != nil {
		return nil, fmt.Errorf("failed to get allocation lines: %w", err)
	}

	return &commit, nil
}

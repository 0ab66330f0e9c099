package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ticket-office/internal/entity"
)

type allocationRepository struct {
	db *sql.DB
}

func NewAllocationRepository(db *sql.DB) AllocationRepository {
	return &allocationRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// upsertAllocation inserts or replaces the allocation for (event, seller).
// Re-applying an allocation for the same seller overwrites the previous
// count instead of accumulating a second row.
func upsertAllocation(ctx context.Context, q execer, allocation *entity.ResaleAllocation) error {
	query := `
		INSERT INTO resale_allocations (event_id, seller_id, number_of_tickets)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, seller_id)
		DO UPDATE SET number_of_tickets = EXCLUDED.number_of_tickets
	`

	_, err := q.ExecContext(ctx, query,
		allocation.EventID,
		allocation.SellerID,
		allocation.NumberOfTickets,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert allocation: %w", err)
	}
	return nil
}

func (r *allocationRepository) Upsert(ctx context.Context, allocation *entity.ResaleAllocation) error {
	return upsertAllocation(ctx, r.db, allocation)
}

func (r *allocationRepository) Get(ctx context.Context, eventID, sellerID int64) (*entity.ResaleAllocation, error) {
	query := `
		SELECT event_id, seller_id, number_of_tickets
		FROM resale_allocations
		WHERE event_id = $1 AND seller_id = $2
	`

	var allocation entity.ResaleAllocation
	err := r.db.QueryRowContext(ctx, query, eventID, sellerID).Scan(
		&allocation.EventID,
		&allocation.SellerID,
		&allocation.NumberOfTickets,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	return &allocation, nil
}

func (r *allocationRepository) GetByEvent(ctx context.Context, eventID int64) ([]*entity.ResaleAllocation, error) {
	query := `
		SELECT event_id, seller_id, number_of_tickets
		FROM resale_allocations
		WHERE event_id = $1
		ORDER BY seller_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*entity.ResaleAllocation
	for rows.Next() {
		var allocation entity.ResaleAllocation
		err := rows.Scan(
			&allocation.EventID,
			&allocation.SellerID,
			&allocation.NumberOfTickets,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, &allocation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}
	return allocations, nil
}

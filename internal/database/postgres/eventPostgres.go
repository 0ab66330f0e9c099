package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ticket-office/internal/entity"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, title, cent_price, currency_code, time, number_of_tickets, organizer_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*entity.Event, error) {
	var event entity.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.CentPrice,
		&event.CurrencyCode,
		&event.Time,
		&event.NumberOfTickets,
		&event.OrganizerID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Create writes the event and its allocation grants in one transaction so a
// failed allocation insert never leaves an event behind without its grants.
func (r *eventRepository) Create(ctx context.Context, event *entity.Event, allocations []*entity.ResaleAllocation) error {
	query := `
		INSERT INTO events (title, cent_price, currency_code, time, number_of_tickets, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, query,
		event.Title,
		event.CentPrice,
		event.CurrencyCode,
		event.Time,
		event.NumberOfTickets,
		event.OrganizerID,
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	for _, allocation := range allocations {
		allocation.EventID = event.ID
		if err := upsertAllocation(ctx, tx, allocation); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrUnknownItem
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *eventRepository) GetAll(ctx context.Context) ([]*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY time ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all events: %w", err)
	}
	defer rows.Close()

	var events []*entity.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event, allocations []*entity.ResaleAllocation) error {
	query := `
		UPDATE events
		SET title = $1, cent_price = $2, currency_code = $3, time = $4,
		    number_of_tickets = $5, organizer_id = $6, updated_at = $7
		WHERE id = $8
	`

	event.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query,
		event.Title,
		event.CentPrice,
		event.CurrencyCode,
		event.Time,
		event.NumberOfTickets,
		event.OrganizerID,
		event.UpdatedAt,
		event.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrUnknownItem
	}

	for _, allocation := range allocations {
		allocation.EventID = event.ID
		if err := upsertAllocation(ctx, tx, allocation); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes an event and, via the cascading foreign key, its resale
// allocations. Sold tickets keep their event reference, so an event with
// recorded sales cannot be deleted.
func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqForeignKeyViolation {
		return entity.ErrRemoveDependentFirst
	}
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrUnknownItem
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"ticket-office/internal/entity"
	"ticket-office/internal/inventory"
)

const pqForeignKeyViolation = "23503"

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// CreateSale makes the admission decision and persists the sale in one
// transaction. The event row is locked FOR UPDATE first, so two concurrent
// sales for the same event cannot both pass the capacity check when only one
// slot remains. Nothing is written unless the ledger admits the sale.
func (r *ticketRepository) CreateSale(ctx context.Context, params *SaleParams) (*entity.SoldTicket, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	snapshot, err := admissionSnapshot(ctx, tx, params.EventID, params.Seller, true)
	if err != nil {
		return nil, err
	}
	if err := inventory.Admit(snapshot); err != nil {
		return nil, err
	}

	buyer := params.Buyer
	query := `
		INSERT INTO buyers (name, phone, email)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query, buyer.Name, buyer.Phone, buyer.Email).Scan(&buyer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create buyer: %w", err)
	}

	ticket := entity.SoldTicket{
		EventID:  params.EventID,
		BuyerID:  buyer.ID,
		SellerID: params.Seller.ID,
	}
	query = `
		INSERT INTO sold_tickets (event_id, buyer_id, seller_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query, ticket.EventID, ticket.BuyerID, ticket.SellerID).Scan(&ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create sold ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &ticket, nil
}

// AdmissionSnapshot reads the ledger inputs without locking, for callers that
// gate before the transactional re-check in CreateSale.
func (r *ticketRepository) AdmissionSnapshot(ctx context.Context, eventID int64, seller *entity.User) (inventory.Snapshot, error) {
	return admissionSnapshot(ctx, r.db, eventID, seller, false)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func admissionSnapshot(ctx context.Context, q querier, eventID int64, seller *entity.User, lock bool) (inventory.Snapshot, error) {
	snapshot := inventory.Snapshot{Role: seller.RoleOrEmpty()}

	query := `SELECT number_of_tickets FROM events WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	err := q.QueryRowContext(ctx, query, eventID).Scan(&snapshot.TotalTickets)
	if err == sql.ErrNoRows {
		return snapshot, entity.ErrInvalidRequest
	}
	if err != nil {
		return snapshot, fmt.Errorf("failed to read event tickets: %w", err)
	}

	query = `SELECT COALESCE(SUM(number_of_tickets), 0) FROM resale_allocations WHERE event_id = $1`
	if err := q.QueryRowContext(ctx, query, eventID).Scan(&snapshot.ResellerAllocated); err != nil {
		return snapshot, fmt.Errorf("failed to sum allocations: %w", err)
	}

	var allocated int
	query = `SELECT number_of_tickets FROM resale_allocations WHERE event_id = $1 AND seller_id = $2`
	err = q.QueryRowContext(ctx, query, eventID, seller.ID).Scan(&allocated)
	if err == nil {
		snapshot.Allocation = &allocated
	} else if err != sql.ErrNoRows {
		return snapshot, fmt.Errorf("failed to read seller allocation: %w", err)
	}

	query = `SELECT COUNT(*) FROM sold_tickets WHERE seller_id = $1`
	if err := q.QueryRowContext(ctx, query, seller.ID).Scan(&snapshot.Sold); err != nil {
		return snapshot, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	return snapshot, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*entity.SoldTicket, error) {
	query := `SELECT id, event_id, buyer_id, seller_id FROM sold_tickets WHERE id = $1`

	var ticket entity.SoldTicket
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.BuyerID,
		&ticket.SellerID,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrUnknownItem
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sold ticket: %w", err)
	}
	return &ticket, nil
}

func (r *ticketRepository) GetAll(ctx context.Context) ([]*entity.SoldTicket, error) {
	query := `SELECT id, event_id, buyer_id, seller_id FROM sold_tickets ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sold tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*entity.SoldTicket
	for rows.Next() {
		var ticket entity.SoldTicket
		err := rows.Scan(&ticket.ID, &ticket.EventID, &ticket.BuyerID, &ticket.SellerID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sold ticket: %w", err)
		}
		tickets = append(tickets, &ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sold tickets: %w", err)
	}
	return tickets, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM sold_tickets WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete sold ticket: %w", err)
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

func (r *ticketRepository) CountBySeller(ctx context.Context, sellerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sold_tickets WHERE seller_id = $1`, sellerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sold tickets: %w", err)
	}
	return count, nil
}

type buyerRepository struct {
	db *sql.DB
}

func NewBuyerRepository(db *sql.DB) BuyerRepository {
	return &buyerRepository{db: db}
}

func (r *buyerRepository) GetByID(ctx context.Context, id int64) (*entity.Buyer, error) {
	query := `SELECT id, name, phone, email FROM buyers WHERE id = $1`

	var buyer entity.Buyer
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&buyer.ID,
		&buyer.Name,
		&buyer.Phone,
		&buyer.Email,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrUnknownItem
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	return &buyer, nil
}

func (r *buyerRepository) GetAll(ctx context.Context) ([]*entity.Buyer, error) {
	query := `SELECT id, name, phone, email FROM buyers ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query buyers: %w", err)
	}
	defer rows.Close()

	var buyers []*entity.Buyer
	for rows.Next() {
		var buyer entity.Buyer
		err := rows.Scan(&buyer.ID, &buyer.Name, &buyer.Phone, &buyer.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buyer: %w", err)
		}
		buyers = append(buyers, &buyer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buyers: %w", err)
	}
	return buyers, nil
}

// Delete relies on the RESTRICT foreign key from sold_tickets: deleting a
// buyer that a ticket still references fails and surfaces as
// entity.ErrRemoveDependentFirst.
func (r *buyerRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM buyers WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqForeignKeyViolation {
		return entity.ErrRemoveDependentFirst
	}
	if err != nil {
		return fmt.Errorf("failed to delete buyer: %w", err)
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

package repository

import (
	"context"

	"ticket-office/internal/entity"
	"ticket-office/internal/inventory"
)

type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetAll(ctx context.Context) ([]*entity.User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)

	// Single-field updates
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateName(ctx context.Context, id int64, name string) error
	UpdateRole(ctx context.Context, id int64, role entity.Role) error

	// Login throttling; increments and resets are atomic in the store
	IncrementLoginFail(ctx context.Context, id int64) (int, error)
	SetLoginFailCount(ctx context.Context, id int64, count int) error

	// Email verification
	EmailExists(ctx context.Context, email string) (bool, error)
	MarkVerified(ctx context.Context, email string) error

	// External identities; creation is idempotent under concurrent first sight
	GetOrCreateByExternalID(ctx context.Context, externalID string) (*entity.User, error)
}

type EventRepository interface {
	// Create and Update write the event row and the given allocation
	// upserts in one transaction, so a failed allocation write leaves no
	// partial event state behind.
	Create(ctx context.Context, event *entity.Event, allocations []*entity.ResaleAllocation) error
	GetByID(ctx context.Context, id int64) (*entity.Event, error)
	GetAll(ctx context.Context) ([]*entity.Event, error)
	Update(ctx context.Context, event *entity.Event, allocations []*entity.ResaleAllocation) error
	Delete(ctx context.Context, id int64) error
}

type AllocationRepository interface {
	Upsert(ctx context.Context, allocation *entity.ResaleAllocation) error
	Get(ctx context.Context, eventID, sellerID int64) (*entity.ResaleAllocation, error)
	GetByEvent(ctx context.Context, eventID int64) ([]*entity.ResaleAllocation, error)
}

// SaleParams is one admission-checked sale: the buyer row and the sold-ticket
// row are inserted together, after the admission check, in one transaction.
type SaleParams struct {
	EventID int64
	Seller  *entity.User
	Buyer   entity.Buyer
}

type TicketRepository interface {
	// CreateSale runs the admission check and persists buyer and ticket
	// atomically. The event row is locked for the duration, so concurrent
	// sales for the same event serialize.
	CreateSale(ctx context.Context, params *SaleParams) (*entity.SoldTicket, error)

	// AdmissionSnapshot reads the ledger inputs for (event, seller) outside
	// a sale, for the pre-insert gate and capacity queries.
	AdmissionSnapshot(ctx context.Context, eventID int64, seller *entity.User) (inventory.Snapshot, error)

	GetByID(ctx context.Context, id int64) (*entity.SoldTicket, error)
	GetAll(ctx context.Context) ([]*entity.SoldTicket, error)
	Delete(ctx context.Context, id int64) error
	CountBySeller(ctx context.Context, sellerID int64) (int, error)
}

type BuyerRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Buyer, error)
	GetAll(ctx context.Context) ([]*entity.Buyer, error)
	Delete(ctx context.Context, id int64) error
}

package service

import (
	"context"

	"ticket-office/internal/entity"
)

// IdentityResolver turns request credentials into a logged-in identity,
// creating a placeholder account on first sight of a new external identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, creds entity.Credentials) (entity.Identity, error)
}

type UserService interface {
	// Account lifecycle
	Register(ctx context.Context, req *RegisterRequest) (string, error)
	Activate(ctx context.Context, code string) error
	Login(ctx context.Context, req *LoginRequest) (string, error)

	// Gated user-record operations
	ReadSelf(ctx context.Context, creds entity.Credentials) (*entity.User, error)
	Get(ctx context.Context, creds entity.Credentials, id int64) (*entity.User, error)
	List(ctx context.Context, creds entity.Credentials) ([]*entity.User, error)
	Update(ctx context.Context, creds entity.Credentials, id int64, req *UpdateUserRequest) (*entity.User, error)
	Delete(ctx context.Context, creds entity.Credentials, id int64) (*entity.User, error)
}

type EventService interface {
	Create(ctx context.Context, creds entity.Credentials, req *CreateEventRequest) (*EventResponse, error)
	Update(ctx context.Context, creds entity.Credentials, id int64, req *UpdateEventRequest) (*EventResponse, error)
	Get(ctx context.Context, id int64) (*EventResponse, error)
	List(ctx context.Context) ([]*EventResponse, error)
	Delete(ctx context.Context, creds entity.Credentials, id int64) (*EventResponse, error)
}

type TicketService interface {
	Sell(ctx context.Context, creds entity.Credentials, req *SellTicketRequest) (*entity.SoldTicket, error)
	Get(ctx context.Context, id int64) (*entity.SoldTicket, error)
	List(ctx context.Context) ([]*entity.SoldTicket, error)
	Delete(ctx context.Context, creds entity.Credentials, id int64) (*entity.SoldTicket, error)

	GetBuyer(ctx context.Context, creds entity.Credentials, id int64) (*entity.Buyer, error)
	ListBuyers(ctx context.Context, creds entity.Credentials) ([]*entity.Buyer, error)
	DeleteBuyer(ctx context.Context, creds entity.Credentials, id int64) (*entity.Buyer, error)
}

// Mailer sends outbound mail. Implemented by pkg/mailer.
type Mailer interface {
	Send(to, subject, body string) error
}

// RegisterRequest creates a password account. Role may only be organizer or
// reseller at registration; admin is granted later by an admin.
type RegisterRequest struct {
	Email    string       `json:"email" binding:"required"`
	Password string       `json:"password" binding:"required"`
	Name     *string      `json:"name"`
	Role     *entity.Role `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest carries at most one present field; pointer fields model
// present/absent explicitly.
type UpdateUserRequest struct {
	Password *string      `json:"password"`
	Role     *entity.Role `json:"role"`
	Block    *bool        `json:"block"`
	Name     *string      `json:"name"`
}

// AllocationRequest grants one reseller tickets on an event.
type AllocationRequest struct {
	SellerID        int64 `json:"seller_id" binding:"required"`
	NumberOfTickets int   `json:"number_of_tickets" binding:"required"`
}

// CreateEventRequest creates an event. Price is a decimal string in major
// currency units; Time is RFC 3339 and must lie in the future.
type CreateEventRequest struct {
	Title           string              `json:"title" binding:"required"`
	Price           string              `json:"price" binding:"required"`
	CurrencyCode    string              `json:"currency_code" binding:"required"`
	Time            string              `json:"time" binding:"required"`
	NumberOfTickets int                 `json:"number_of_tickets" binding:"required"`
	OrganizerID     *int64              `json:"organizer_id"`
	Resellers       []AllocationRequest `json:"resellers"`
}

type UpdateEventRequest struct {
	Title           *string             `json:"title"`
	Price           *string             `json:"price"`
	CurrencyCode    *string             `json:"currency_code"`
	Time            *string             `json:"time"`
	NumberOfTickets *int                `json:"number_of_tickets"`
	OrganizerID     *int64              `json:"organizer_id"`
	Resellers       []AllocationRequest `json:"resellers"`
}

// EventResponse is the read representation: price rendered as a decimal
// string, reseller allocations embedded.
type EventResponse struct {
	ID              int64               `json:"id"`
	Title           string              `json:"title"`
	Price           string              `json:"price"`
	CurrencyCode    string              `json:"currency_code"`
	Time            string              `json:"time"`
	NumberOfTickets int                 `json:"number_of_tickets"`
	OrganizerID     int64               `json:"organizer_id"`
	Resellers       []AllocationRequest `json:"resellers,omitempty"`
}

type BuyerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// SellTicketRequest sells one ticket. SellerID names the selling user; when
// absent the caller's own identity is the seller.
type SellTicketRequest struct {
	EventID  int64        `json:"event_id" binding:"required"`
	SellerID *int64       `json:"seller_id"`
	Buyer    BuyerRequest `json:"buyer" binding:"required"`
}

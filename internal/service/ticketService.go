package service

import (
	"context"
	"errors"

	"github.com/asaskevich/govalidator"
	"github.com/nyaruka/phonenumbers"

	repository "ticket-office/internal/database/postgres"
	"ticket-office/internal/entity"
	"ticket-office/internal/inventory"
	"ticket-office/internal/monitoring"
)

type ticketService struct {
	users    repository.UserRepository
	tickets  repository.TicketRepository
	buyers   repository.BuyerRepository
	identity IdentityResolver
}

func NewTicketService(users repository.UserRepository, tickets repository.TicketRepository, buyers repository.BuyerRepository, identity IdentityResolver) TicketService {
	return &ticketService{
		users:    users,
		tickets:  tickets,
		buyers:   buyers,
		identity: identity,
	}
}

// Sell records one ticket sale. The capacity gate runs twice: a cheap
// snapshot check before the buyer is validated, then again under a row lock
// inside the insert transaction, so concurrent sales cannot oversell.
func (s *ticketService) Sell(ctx context.Context, creds entity.Credentials, req *SellTicketRequest) (*entity.SoldTicket, error) {
	seller, err := s.resolveSeller(ctx, creds, req.SellerID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.tickets.AdmissionSnapshot(ctx, req.EventID, seller)
	if err != nil {
		return nil, err
	}
	if err := inventory.Admit(snapshot); err != nil {
		if errors.Is(err, entity.ErrSoldOut) {
			monitoring.SalesRejected.WithLabelValues("sold_out").Inc()
		}
		return nil, err
	}

	buyer, err := validateBuyer(req.Buyer)
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.CreateSale(ctx, &repository.SaleParams{
		EventID: req.EventID,
		Seller:  seller,
		Buyer:   buyer,
	})
	if err != nil {
		if errors.Is(err, entity.ErrSoldOut) {
			monitoring.SalesRejected.WithLabelValues("sold_out").Inc()
		}
		return nil, err
	}

	monitoring.TicketsSold.Inc()
	return ticket, nil
}

// resolveSeller determines who the sale is recorded for. When the request
// names no seller the caller's own account is used, and a failed credential
// resolution surfaces as an invalid request rather than an auth error.
func (s *ticketService) resolveSeller(ctx context.Context, creds entity.Credentials, sellerID *int64) (*entity.User, error) {
	if sellerID == nil {
		ident, err := s.identity.Resolve(ctx, creds)
		if err != nil {
			return nil, entity.ErrInvalidRequest
		}
		return s.users.GetByID(ctx, ident.UserID)
	}

	ident, err := s.identity.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	caller, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	if !canSellFor(caller, *sellerID) {
		return nil, entity.ErrNotAllowed
	}

	seller, err := s.users.GetByID(ctx, *sellerID)
	if err != nil {
		return nil, entity.ErrInvalidRequest
	}
	return seller, nil
}

func validateBuyer(req BuyerRequest) (entity.Buyer, error) {
	if !govalidator.IsEmail(req.Email) {
		return entity.Buyer{}, entity.ErrInvalidEmail
	}

	number, err := phonenumbers.Parse(req.Phone, "")
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return entity.Buyer{}, entity.ErrInvalidRequest
	}

	return entity.Buyer{
		Name:  req.Name,
		Phone: phonenumbers.Format(number, phonenumbers.E164),
		Email: req.Email,
	}, nil
}

func (s *ticketService) Get(ctx context.Context, id int64) (*entity.SoldTicket, error) {
	return s.tickets.GetByID(ctx, id)
}

func (s *ticketService) List(ctx context.Context) ([]*entity.SoldTicket, error) {
	return s.tickets.GetAll(ctx)
}

func (s *ticketService) Delete(ctx context.Context, creds entity.Credentials, id int64) (*entity.SoldTicket, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !canDeleteTicket(caller) {
		return nil, entity.ErrNotAllowed
	}

	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *ticketService) GetBuyer(ctx context.Context, creds entity.Credentials, id int64) (*entity.Buyer, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !canManageBuyers(caller) {
		return nil, entity.ErrNotAllowed
	}
	return s.buyers.GetByID(ctx, id)
}

func (s *ticketService) ListBuyers(ctx context.Context, creds entity.Credentials) ([]*entity.Buyer, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !canManageBuyers(caller) {
		return nil, entity.ErrNotAllowed
	}
	return s.buyers.GetAll(ctx)
}

func (s *ticketService) DeleteBuyer(ctx context.Context, creds entity.Credentials, id int64) (*entity.Buyer, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !canManageBuyers(caller) {
		return nil, entity.ErrNotAllowed
	}

	buyer, err := s.buyers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.buyers.Delete(ctx, id); err != nil {
		return nil, err
	}
	return buyer, nil
}

func (s *ticketService) caller(ctx context.Context, creds entity.Credentials) (*entity.User, error) {
	ident, err := s.identity.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, ident.UserID)
}

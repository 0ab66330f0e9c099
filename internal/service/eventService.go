package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	repository "ticket-office/internal/database/postgres"
	"ticket-office/internal/entity"
)

type eventService struct {
	users       repository.UserRepository
	events      repository.EventRepository
	allocations repository.AllocationRepository
	identity    IdentityResolver
}

func NewEventService(users repository.UserRepository, events repository.EventRepository, allocations repository.AllocationRepository, identity IdentityResolver) EventService {
	return &eventService{
		users:       users,
		events:      events,
		allocations: allocations,
		identity:    identity,
	}
}

var centFactor = decimal.NewFromInt(100)

// parsePrice converts a decimal price string in major units to cents.
func parsePrice(price string) (int64, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, entity.ErrInvalidRequest
	}
	if d.IsNegative() {
		return 0, entity.ErrInvalidRequest
	}
	cents := d.Mul(centFactor)
	if !cents.IsInteger() {
		return 0, entity.ErrInvalidRequest
	}
	return cents.IntPart(), nil
}

func formatPrice(cents int64) string {
	return decimal.NewFromInt(cents).Div(centFactor).StringFixed(2)
}

// parseEventTime accepts RFC 3339 and requires a moment in the future.
func parseEventTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, entity.ErrInvalidRequest
	}
	if !t.After(time.Now()) {
		return time.Time{}, entity.ErrInvalidRequest
	}
	return t, nil
}

func (s *eventService) Create(ctx context.Context, creds entity.Credentials, req *CreateEventRequest) (*EventResponse, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !canCreateEvent(caller) {
		return nil, entity.ErrNotAllowed
	}

	// The caller owns the event unless the request names someone else. The
	// named user only has to exist.
	organizerID := caller.ID
	if req.OrganizerID != nil {
		if _, err := s.users.GetByID(ctx, *req.OrganizerID); err != nil {
			return nil, entity.ErrInvalidRequest
		}
		organizerID = *req.OrganizerID
	}

	cents, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}
	eventTime, err := parseEventTime(req.Time)
	if err != nil {
		return nil, err
	}
	if req.NumberOfTickets <= 0 {
		return nil, entity.ErrInvalidRequest
	}

	if err := s.validateAllocations(ctx, req.Resellers, req.NumberOfTickets); err != nil {
		return nil, err
	}

	event := &entity.Event{
		Title:           req.Title,
		CentPrice:       cents,
		CurrencyCode:    req.CurrencyCode,
		Time:            eventTime,
		NumberOfTickets: req.NumberOfTickets,
		OrganizerID:     organizerID,
	}
	if err := s.events.Create(ctx, event, allocationRows(event.ID, req.Resellers)); err != nil {
		return nil, err
	}

	return s.response(ctx, event)
}

func allocationRows(eventID int64, allocs []AllocationRequest) []*entity.ResaleAllocation {
	rows := make([]*entity.ResaleAllocation, 0, len(allocs))
	for _, alloc := range allocs {
		rows = append(rows, &entity.ResaleAllocation{
			EventID:         eventID,
			SellerID:        alloc.SellerID,
			NumberOfTickets: alloc.NumberOfTickets,
		})
	}
	return rows
}

func (s *eventService) Update(ctx context.Context, creds entity.Credentials, id int64, req *UpdateEventRequest) (*EventResponse, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !canManageEvent(caller) {
		return nil, entity.ErrNotAllowed
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Price != nil {
		cents, err := parsePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		event.CentPrice = cents
	}
	if req.CurrencyCode != nil {
		event.CurrencyCode = *req.CurrencyCode
	}
	if req.Time != nil {
		eventTime, err := parseEventTime(*req.Time)
		if err != nil {
			return nil, err
		}
		event.Time = eventTime
	}
	if req.NumberOfTickets != nil {
		if *req.NumberOfTickets <= 0 {
			return nil, entity.ErrInvalidRequest
		}
		event.NumberOfTickets = *req.NumberOfTickets
	}
	if req.OrganizerID != nil {
		if _, err := s.users.GetByID(ctx, *req.OrganizerID); err != nil {
			return nil, entity.ErrInvalidRequest
		}
		event.OrganizerID = *req.OrganizerID
	}

	// Allocations are validated against the post-update capacity before
	// anything is written, so an oversubscribed request changes nothing.
	merged, err := s.mergedAllocations(ctx, id, req.Resellers)
	if err != nil {
		return nil, err
	}
	if err := s.checkCapacity(merged, event.NumberOfTickets); err != nil {
		return nil, err
	}
	if err := s.validateAllocationSellers(ctx, req.Resellers); err != nil {
		return nil, err
	}

	if err := s.events.Update(ctx, event, allocationRows(id, req.Resellers)); err != nil {
		return nil, err
	}

	return s.response(ctx, event)
}

func (s *eventService) Get(ctx context.Context, id int64) (*EventResponse, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.response(ctx, event)
}

func (s *eventService) List(ctx context.Context) ([]*EventResponse, error) {
	events, err := s.events.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*EventResponse, 0, len(events))
	for _, event := range events {
		resp, err := s.response(ctx, event)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *eventService) Delete(ctx context.Context, creds entity.Credentials, id int64) (*EventResponse, error) {
	caller, err := s.caller(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !canManageEvent(caller) {
		return nil, entity.ErrNotAllowed
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := s.response(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return nil, err
	}
	return resp, nil
}

// validateAllocations checks the full allocation set of a new event.
func (s *eventService) validateAllocations(ctx context.Context, allocs []AllocationRequest, total int) error {
	bySeller := make(map[int64]int, len(allocs))
	for _, alloc := range allocs {
		bySeller[alloc.SellerID] = alloc.NumberOfTickets
	}
	if err := s.checkCapacity(bySeller, total); err != nil {
		return err
	}
	return s.validateAllocationSellers(ctx, allocs)
}

// mergedAllocations overlays requested allocations on the stored ones,
// mirroring the upsert the write path will perform.
func (s *eventService) mergedAllocations(ctx context.Context, eventID int64, allocs []AllocationRequest) (map[int64]int, error) {
	existing, err := s.allocations.GetByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	merged := make(map[int64]int, len(existing)+len(allocs))
	for _, a := range existing {
		merged[a.SellerID] = a.NumberOfTickets
	}
	for _, a := range allocs {
		merged[a.SellerID] = a.NumberOfTickets
	}
	return merged, nil
}

func (s *eventService) checkCapacity(bySeller map[int64]int, total int) error {
	sum := 0
	for _, n := range bySeller {
		if n <= 0 {
			return entity.ErrInvalidRequest
		}
		sum += n
	}
	if sum > total {
		return entity.ErrTryingToResellTooMany
	}
	return nil
}

func (s *eventService) validateAllocationSellers(ctx context.Context, allocs []AllocationRequest) error {
	for _, alloc := range allocs {
		seller, err := s.users.GetByID(ctx, alloc.SellerID)
		if err != nil {
			return entity.ErrInvalidRequest
		}
		if seller.RoleOrEmpty() != entity.RoleReseller {
			return entity.ErrInvalidRequest
		}
	}
	return nil
}

func (s *eventService) response(ctx context.Context, event *entity.Event) (*EventResponse, error) {
	allocs, err := s.allocations.GetByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	resellers := make([]AllocationRequest, 0, len(allocs))
	for _, a := range allocs {
		resellers = append(resellers, AllocationRequest{
			SellerID:        a.SellerID,
			NumberOfTickets: a.NumberOfTickets,
		})
	}

	return &EventResponse{
		ID:              event.ID,
		Title:           event.Title,
		Price:           formatPrice(event.CentPrice),
		CurrencyCode:    event.CurrencyCode,
		Time:            event.Time.Format(time.RFC3339),
		NumberOfTickets: event.NumberOfTickets,
		OrganizerID:     event.OrganizerID,
		Resellers:       resellers,
	}, nil
}

func (s *eventService) caller(ctx context.Context, creds entity.Credentials) (*entity.User, error) {
	ident, err := s.identity.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, ident.UserID)
}

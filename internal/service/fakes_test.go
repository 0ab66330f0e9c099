package service

import (
	"context"
	"errors"
	"sync"

	repository "ticket-office/internal/database/postgres"
	"ticket-office/internal/entity"
	"ticket-office/internal/inventory"
)

var errAllocationWrite = errors.New("failed to upsert allocation")

// In-memory repositories backing the service tests. They mirror the
// postgres semantics the services rely on: sentinel errors for missing
// rows, nil-without-error lookups, upsert allocations.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]*entity.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, entity.ErrUnknownItem
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email != nil && *user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetAll(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*entity.User, 0, len(r.users))
	for _, user := range r.users {
		clone := *user
		users = append(users, &clone)
	}
	return users, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return entity.ErrUnknownItem
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return entity.ErrUnknownItem
	}
	user.PasswordHash = &hash
	return nil
}

func (r *fakeUserRepo) UpdateName(_ context.Context, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return entity.ErrUnknownItem
	}
	user.Name = &name
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id int64, role entity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return entity.ErrUnknownItem
	}
	user.Role = &role
	return nil
}

func (r *fakeUserRepo) IncrementLoginFail(_ context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, entity.ErrUnknownItem
	}
	user.LoginFailCount++
	return user.LoginFailCount, nil
}

func (r *fakeUserRepo) SetLoginFailCount(_ context.Context, id int64, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return entity.ErrUnknownItem
	}
	user.LoginFailCount = count
	return nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	user, err := r.GetByEmail(ctx, email)
	return user != nil, err
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email != nil && *user.Email == email {
			user.Verified = true
			return nil
		}
	}
	return entity.ErrUnknownItem
}

func (r *fakeUserRepo) GetOrCreateByExternalID(_ context.Context, externalID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ExternalAccountID != nil && *user.ExternalAccountID == externalID {
			clone := *user
			return &clone, nil
		}
	}
	user := &entity.User{ID: r.nextID, ExternalAccountID: &externalID, Verified: true}
	r.nextID++
	r.users[user.ID] = user
	clone := *user
	return &clone, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*entity.Event
	allocs *fakeAllocationRepo

	// failAllocationFor makes any write carrying an allocation for this
	// seller fail, mimicking a constraint violation inside the transaction.
	failAllocationFor int64
}

func newFakeEventRepo(allocs *fakeAllocationRepo) *fakeEventRepo {
	return &fakeEventRepo{nextID: 1, events: make(map[int64]*entity.Event), allocs: allocs}
}

// applyAllocations mirrors the transactional write: if any allocation is
// rejected, nothing at all may be stored, so callers check it up front.
func (r *fakeEventRepo) allocationsRejected(allocations []*entity.ResaleAllocation) bool {
	for _, allocation := range allocations {
		if r.failAllocationFor != 0 && allocation.SellerID == r.failAllocationFor {
			return true
		}
	}
	return false
}

func (r *fakeEventRepo) applyAllocations(ctx context.Context, eventID int64, allocations []*entity.ResaleAllocation) {
	for _, allocation := range allocations {
		allocation.EventID = eventID
		_ = r.allocs.Upsert(ctx, allocation)
	}
}

func (r *fakeEventRepo) Create(ctx context.Context, event *entity.Event, allocations []*entity.ResaleAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allocationsRejected(allocations) {
		return errAllocationWrite
	}
	event.ID = r.nextID
	r.nextID++
	clone := *event
	r.events[event.ID] = &clone
	r.applyAllocations(ctx, event.ID, allocations)
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int64) (*entity.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, entity.ErrUnknownItem
	}
	clone := *event
	return &clone, nil
}

func (r *fakeEventRepo) GetAll(_ context.Context) ([]*entity.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]*entity.Event, 0, len(r.events))
	for _, event := range r.events {
		clone := *event
		events = append(events, &clone)
	}
	return events, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event *entity.Event, allocations []*entity.ResaleAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return entity.ErrUnknownItem
	}
	if r.allocationsRejected(allocations) {
		return errAllocationWrite
	}
	clone := *event
	r.events[event.ID] = &clone
	r.applyAllocations(ctx, event.ID, allocations)
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return entity.ErrUnknownItem
	}
	delete(r.events, id)
	return nil
}

type allocKey struct {
	eventID  int64
	sellerID int64
}

type fakeAllocationRepo struct {
	mu     sync.Mutex
	allocs map[allocKey]int
}

func newFakeAllocationRepo() *fakeAllocationRepo {
	return &fakeAllocationRepo{allocs: make(map[allocKey]int)}
}

func (r *fakeAllocationRepo) Upsert(_ context.Context, allocation *entity.ResaleAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocs[allocKey{allocation.EventID, allocation.SellerID}] = allocation.NumberOfTickets
	return nil
}

func (r *fakeAllocationRepo) Get(_ context.Context, eventID, sellerID int64) (*entity.ResaleAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.allocs[allocKey{eventID, sellerID}]
	if !ok {
		return nil, nil
	}
	return &entity.ResaleAllocation{EventID: eventID, SellerID: sellerID, NumberOfTickets: n}, nil
}

func (r *fakeAllocationRepo) GetByEvent(_ context.Context, eventID int64) ([]*entity.ResaleAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var allocs []*entity.ResaleAllocation
	for key, n := range r.allocs {
		if key.eventID == eventID {
			allocs = append(allocs, &entity.ResaleAllocation{
				EventID:         key.eventID,
				SellerID:        key.sellerID,
				NumberOfTickets: n,
			})
		}
	}
	return allocs, nil
}

// fakeTicketRepo reuses the real ledger for admission so the service tests
// exercise the same arithmetic the store does.
type fakeTicketRepo struct {
	mu      sync.Mutex
	nextID  int64
	tickets map[int64]*entity.SoldTicket
	events  *fakeEventRepo
	allocs  *fakeAllocationRepo
	buyers  *fakeBuyerRepo
}

func newFakeTicketRepo(events *fakeEventRepo, allocs *fakeAllocationRepo, buyers *fakeBuyerRepo) *fakeTicketRepo {
	return &fakeTicketRepo{
		nextID:  1,
		tickets: make(map[int64]*entity.SoldTicket),
		events:  events,
		allocs:  allocs,
		buyers:  buyers,
	}
}

func (r *fakeTicketRepo) snapshot(ctx context.Context, eventID int64, seller *entity.User) (inventory.Snapshot, error) {
	event, err := r.events.GetByID(ctx, eventID)
	if err != nil {
		return inventory.Snapshot{}, entity.ErrInvalidRequest
	}

	allocs, _ := r.allocs.GetByEvent(ctx, eventID)
	allocated := 0
	var own *int
	for _, a := range allocs {
		allocated += a.NumberOfTickets
		if a.SellerID == seller.ID {
			n := a.NumberOfTickets
			own = &n
		}
	}

	sold := 0
	for _, t := range r.tickets {
		if t.SellerID == seller.ID {
			sold++
		}
	}

	return inventory.Snapshot{
		Role:              seller.RoleOrEmpty(),
		TotalTickets:      event.NumberOfTickets,
		ResellerAllocated: allocated,
		Allocation:        own,
		Sold:              sold,
	}, nil
}

func (r *fakeTicketRepo) AdmissionSnapshot(ctx context.Context, eventID int64, seller *entity.User) (inventory.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(ctx, eventID, seller)
}

func (r *fakeTicketRepo) CreateSale(ctx context.Context, params *repository.SaleParams) (*entity.SoldTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.snapshot(ctx, params.EventID, params.Seller)
	if err != nil {
		return nil, err
	}
	if err := inventory.Admit(snap); err != nil {
		return nil, err
	}

	buyer := params.Buyer
	r.buyers.add(&buyer)

	ticket := &entity.SoldTicket{
		ID:       r.nextID,
		EventID:  params.EventID,
		BuyerID:  buyer.ID,
		SellerID: params.Seller.ID,
	}
	r.nextID++
	r.tickets[ticket.ID] = ticket
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*entity.SoldTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, entity.ErrUnknownItem
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetAll(_ context.Context) ([]*entity.SoldTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tickets := make([]*entity.SoldTicket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		clone := *ticket
		tickets = append(tickets, &clone)
	}
	return tickets, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return entity.ErrUnknownItem
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) CountBySeller(_ context.Context, sellerID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.tickets {
		if ticket.SellerID == sellerID {
			count++
		}
	}
	return count, nil
}

type fakeBuyerRepo struct {
	mu      sync.Mutex
	nextID  int64
	buyers  map[int64]*entity.Buyer
	tickets *fakeTicketRepo
}

func newFakeBuyerRepo() *fakeBuyerRepo {
	return &fakeBuyerRepo{nextID: 1, buyers: make(map[int64]*entity.Buyer)}
}

func (r *fakeBuyerRepo) add(buyer *entity.Buyer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buyer.ID = r.nextID
	r.nextID++
	clone := *buyer
	r.buyers[buyer.ID] = &clone
}

func (r *fakeBuyerRepo) GetByID(_ context.Context, id int64) (*entity.Buyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buyer, ok := r.buyers[id]
	if !ok {
		return nil, entity.ErrUnknownItem
	}
	clone := *buyer
	return &clone, nil
}

func (r *fakeBuyerRepo) GetAll(_ context.Context) ([]*entity.Buyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buyers := make([]*entity.Buyer, 0, len(r.buyers))
	for _, buyer := range r.buyers {
		clone := *buyer
		buyers = append(buyers, &clone)
	}
	return buyers, nil
}

func (r *fakeBuyerRepo) Delete(_ context.Context, id int64) error {
	if r.tickets != nil {
		r.tickets.mu.Lock()
		for _, ticket := range r.tickets.tickets {
			if ticket.BuyerID == id {
				r.tickets.mu.Unlock()
				return entity.ErrRemoveDependentFirst
			}
		}
		r.tickets.mu.Unlock()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.buyers[id]; !ok {
		return entity.ErrUnknownItem
	}
	delete(r.buyers, id)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) Send(to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

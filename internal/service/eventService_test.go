package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-office/internal/auth"
	"ticket-office/internal/entity"
)

type eventFixture struct {
	users  *fakeUserRepo
	events *fakeEventRepo
	allocs *fakeAllocationRepo
	svc    EventService

	admin     *entity.User
	organizer *entity.User
	seller    *entity.User
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	users := newFakeUserRepo()
	allocs := newFakeAllocationRepo()
	events := newFakeEventRepo(allocs)
	identity := NewIdentityResolver(users, auth.NewTokenCodec("test-secret", time.Hour), nil)

	return &eventFixture{
		users:     users,
		events:    events,
		allocs:    allocs,
		svc:       NewEventService(users, events, allocs, identity),
		admin:     seedUser(t, users, "admin@example.com", "pw", roleOf(entity.RoleAdmin), true),
		organizer: seedUser(t, users, "organizer@example.com", "pw", roleOf(entity.RoleOrganizer), true),
		seller:    seedUser(t, users, "seller@example.com", "pw", roleOf(entity.RoleReseller), true),
	}
}

func futureTime() string {
	return time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
}

func TestCreateEvent(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, tokenFor(t, f.organizer.ID), &CreateEventRequest{
		Title:           "Spring Concert",
		Price:           "24.50",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 100,
		Resellers: []AllocationRequest{
			{SellerID: f.seller.ID, NumberOfTickets: 30},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "24.50", resp.Price)
	assert.Equal(t, f.organizer.ID, resp.OrganizerID)
	require.Len(t, resp.Resellers, 1)
	assert.Equal(t, 30, resp.Resellers[0].NumberOfTickets)
}

func TestCreateEventRequiresRole(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, tokenFor(t, f.seller.ID), &CreateEventRequest{
		Title:           "Nope",
		Price:           "10.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 10,
	})
	assert.ErrorIs(t, err, entity.ErrNotAllowed)

	// Without an explicit organizer the caller owns the event.
	resp, err := f.svc.Create(ctx, tokenFor(t, f.admin.ID), &CreateEventRequest{
		Title:           "Gala",
		Price:           "10.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, resp.OrganizerID)

	resp, err = f.svc.Create(ctx, tokenFor(t, f.admin.ID), &CreateEventRequest{
		Title:           "Gala",
		Price:           "10.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 10,
		OrganizerID:     &f.organizer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, f.organizer.ID, resp.OrganizerID)

	// A named organizer has to exist.
	unknown := int64(999)
	_, err = f.svc.Create(ctx, tokenFor(t, f.organizer.ID), &CreateEventRequest{
		Title:           "Ghost",
		Price:           "10.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 10,
		OrganizerID:     &unknown,
	})
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}

func TestCreateEventValidatesInput(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	creds := tokenFor(t, f.organizer.ID)

	base := func() *CreateEventRequest {
		return &CreateEventRequest{
			Title:           "Show",
			Price:           "10.00",
			CurrencyCode:    "EUR",
			Time:            futureTime(),
			NumberOfTickets: 10,
		}
	}

	req := base()
	req.Price = "abc"
	_, err := f.svc.Create(ctx, creds, req)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)

	req = base()
	req.Price = "10.001"
	_, err = f.svc.Create(ctx, creds, req)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)

	req = base()
	req.Price = "-1.00"
	_, err = f.svc.Create(ctx, creds, req)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)

	req = base()
	req.Time = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	_, err = f.svc.Create(ctx, creds, req)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)

	req = base()
	req.NumberOfTickets = 0
	_, err = f.svc.Create(ctx, creds, req)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}

func TestCreateEventRejectsOversubscribedAllocations(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	other := seedUser(t, f.users, "seller2@example.com", "pw", roleOf(entity.RoleReseller), true)

	_, err := f.svc.Create(ctx, tokenFor(t, f.organizer.ID), &CreateEventRequest{
		Title:           "Tiny Venue",
		Price:           "5.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 10,
		Resellers: []AllocationRequest{
			{SellerID: f.seller.ID, NumberOfTickets: 6},
			{SellerID: other.ID, NumberOfTickets: 6},
		},
	})
	assert.ErrorIs(t, err, entity.ErrTryingToResellTooMany)

	// Nothing was written.
	events, err := f.events.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCreateEventRejectsNonResellerAllocation(t *testing.T) {
	f := newEventFixture(t)

	_, err := f.svc.Create(context.Background(), tokenFor(t, f.organizer.ID), &CreateEventRequest{
		Title:           "Show",
		Price:           "5.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 10,
		Resellers: []AllocationRequest{
			{SellerID: f.organizer.ID, NumberOfTickets: 5},
		},
	})
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}

func TestUpdateEventReplacesAllocation(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	creds := tokenFor(t, f.organizer.ID)

	created, err := f.svc.Create(ctx, creds, &CreateEventRequest{
		Title:           "Show",
		Price:           "5.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 100,
		Resellers: []AllocationRequest{
			{SellerID: f.seller.ID, NumberOfTickets: 30},
		},
	})
	require.NoError(t, err)

	// Re-allocating the same seller replaces the grant, it does not add up.
	updated, err := f.svc.Update(ctx, creds, created.ID, &UpdateEventRequest{
		Resellers: []AllocationRequest{
			{SellerID: f.seller.ID, NumberOfTickets: 40},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Resellers, 1)
	assert.Equal(t, 40, updated.Resellers[0].NumberOfTickets)
}

func TestUpdateEventRejectsShrinkBelowAllocations(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	creds := tokenFor(t, f.organizer.ID)

	created, err := f.svc.Create(ctx, creds, &CreateEventRequest{
		Title:           "Show",
		Price:           "5.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 100,
		Resellers: []AllocationRequest{
			{SellerID: f.seller.ID, NumberOfTickets: 30},
		},
	})
	require.NoError(t, err)

	smaller := 20
	_, err = f.svc.Update(ctx, creds, created.ID, &UpdateEventRequest{NumberOfTickets: &smaller})
	assert.ErrorIs(t, err, entity.ErrTryingToResellTooMany)

	// The stored event kept its original capacity.
	stored, err := f.events.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.NumberOfTickets)
}

func TestEventMutationIsRoleGated(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	other := seedUser(t, f.users, "organizer2@example.com", "pw", roleOf(entity.RoleOrganizer), true)

	created, err := f.svc.Create(ctx, tokenFor(t, f.organizer.ID), &CreateEventRequest{
		Title:           "Show",
		Price:           "5.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 10,
	})
	require.NoError(t, err)

	// Resellers have no say over events.
	title := "Renamed"
	_, err = f.svc.Update(ctx, tokenFor(t, f.seller.ID), created.ID, &UpdateEventRequest{Title: &title})
	assert.ErrorIs(t, err, entity.ErrNotAllowed)

	_, err = f.svc.Delete(ctx, tokenFor(t, f.seller.ID), created.ID)
	assert.ErrorIs(t, err, entity.ErrNotAllowed)

	// Any organizer edits any event; there is no ownership check.
	renamed, err := f.svc.Update(ctx, tokenFor(t, other.ID), created.ID, &UpdateEventRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)

	_, err = f.svc.Delete(ctx, tokenFor(t, f.admin.ID), created.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, entity.ErrUnknownItem)
}

// A failed allocation write inside the store must take the event write down
// with it, on create and on update alike.
func TestEventWritesAreAtomicWithAllocations(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	creds := tokenFor(t, f.organizer.ID)

	f.events.failAllocationFor = f.seller.ID

	_, err := f.svc.Create(ctx, creds, &CreateEventRequest{
		Title:           "Show",
		Price:           "5.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 100,
		Resellers: []AllocationRequest{
			{SellerID: f.seller.ID, NumberOfTickets: 30},
		},
	})
	require.Error(t, err)

	events, err := f.events.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	// Same on update: the capacity change must not land without its
	// allocation.
	f.events.failAllocationFor = 0
	created, err := f.svc.Create(ctx, creds, &CreateEventRequest{
		Title:           "Show",
		Price:           "5.00",
		CurrencyCode:    "EUR",
		Time:            futureTime(),
		NumberOfTickets: 100,
	})
	require.NoError(t, err)

	f.events.failAllocationFor = f.seller.ID
	bigger := 200
	_, err = f.svc.Update(ctx, creds, created.ID, &UpdateEventRequest{
		NumberOfTickets: &bigger,
		Resellers: []AllocationRequest{
			{SellerID: f.seller.ID, NumberOfTickets: 30},
		},
	})
	require.Error(t, err)

	stored, err := f.events.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.NumberOfTickets)
	allocs, err := f.allocs.GetByEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, allocs)
}

func TestGetUnknownEvent(t *testing.T) {
	f := newEventFixture(t)

	_, err := f.svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, entity.ErrUnknownItem)
}

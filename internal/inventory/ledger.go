// Package inventory holds the admission-control logic for ticket sales: how
// much capacity a seller has left for an event given the event's total ticket
// count, the allocations handed out to resellers, and what the seller already
// sold. The functions are pure; callers feed them a Snapshot read inside the
// same transaction that persists the sale, so the decision and the insert
// cannot disagree under concurrent sales.
package inventory

import (
	"ticket-office/internal/entity"
)

// Snapshot is everything the ledger needs to decide one sale. Allocation is
// this seller's own allocation row for the event, nil when no row exists.
type Snapshot struct {
	Role              entity.Role
	TotalTickets      int
	ResellerAllocated int
	Allocation        *int
	Sold              int
}

// Capacity returns the number of tickets the seller is entitled to sell for
// the event, before subtracting what was already sold.
//
// Organizers sell from the unallocated pool: every ticket handed to a
// reseller shrinks the organizer's capacity. Resellers sell only from their
// own allocation row; a reseller without a row is a lookup failure, not a
// zero-capacity seller. Any other role is never allowed to sell.
func Capacity(s Snapshot) (int, error) {
	switch s.Role {
	case entity.RoleOrganizer:
		return s.TotalTickets - s.ResellerAllocated, nil
	case entity.RoleReseller:
		if s.Allocation == nil {
			return 0, entity.ErrInvalidRequest
		}
		return *s.Allocation, nil
	default:
		return 0, entity.ErrNotAllowed
	}
}

// Remaining returns how many more tickets the seller may sell, never
// negative.
func Remaining(s Snapshot) (int, error) {
	capacity, err := Capacity(s)
	if err != nil {
		return 0, err
	}
	if s.Sold >= capacity {
		return 0, nil
	}
	return capacity - s.Sold, nil
}

// Admit decides whether one more sale by the seller is admissible. It returns
// nil when the sale may proceed, entity.ErrSoldOut when capacity is
// exhausted, and the Capacity errors otherwise.
func Admit(s Snapshot) error {
	capacity, err := Capacity(s)
	if err != nil {
		return err
	}
	if s.Sold >= capacity {
		return entity.ErrSoldOut
	}
	return nil
}

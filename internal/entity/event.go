package entity

import (
	"time"
)

// Event is a sellable event. CentPrice is the price in minor currency units
// (cents); the JSON surface renders it as a decimal string.
type Event struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	CentPrice       int64     `json:"-" db:"cent_price"`
	CurrencyCode    string    `json:"currency_code" db:"currency_code"`
	Time            time.Time `json:"time" db:"time"`
	NumberOfTickets int       `json:"number_of_tickets" db:"number_of_tickets"`
	OrganizerID     int64     `json:"organizer_id" db:"organizer_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ResaleAllocation grants a reseller a fixed number of tickets for one event.
// The (EventID, SellerID) pair is the primary key; the sum of allocations for
// an event never exceeds the event's total ticket count.
type ResaleAllocation struct {
	EventID         int64 `json:"-" db:"event_id"`
	SellerID        int64 `json:"seller_id" db:"seller_id"`
	NumberOfTickets int   `json:"number_of_tickets" db:"number_of_tickets"`
}

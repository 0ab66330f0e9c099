package entity

// SoldTicket records a completed sale: which event, who bought it and which
// user (organizer or reseller) sold it. Immutable once created.
type SoldTicket struct {
	ID       int64 `json:"id" db:"id"`
	EventID  int64 `json:"event_id" db:"event_id"`
	BuyerID  int64 `json:"buyer_id" db:"buyer_id"`
	SellerID int64 `json:"seller_id" db:"seller_id"`
}

// Buyer is the person a ticket was sold to. A buyer row may be referenced by
// a sold ticket and cannot be deleted while any reference exists.
type Buyer struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Phone string `json:"phone" db:"phone"`
	Email string `json:"email" db:"email"`
}

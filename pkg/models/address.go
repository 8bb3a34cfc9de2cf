package models

import "time"

// Address is a postal address referenced by voters, campaigns, and users.
// Rows are immutable once created; a changed address is a new row. The
// creation timestamp disambiguates voters who move rather than overwriting
// presumed old addresses.
type Address struct {
	ID         string    `json:"id" db:"id"`
	Street     string    `json:"street" db:"street"`
	City       string    `json:"city" db:"city"`
	State      string    `json:"state" db:"state"`
	Country    string    `json:"country" db:"country"`
	PostalCode string    `json:"postal_code" db:"postal_code"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// AddressFields is the normalized field set used for get-or-create. It
// matches the unique index on addresses.
type AddressFields struct {
	Street     string `json:"street" validate:"required,max=50"`
	City       string `json:"city" validate:"required,max=30"`
	State      string `json:"state" validate:"max=2"`
	Country    string `json:"country" validate:"required,len=2"`
	PostalCode string `json:"postal_code" validate:"max=10"`
}

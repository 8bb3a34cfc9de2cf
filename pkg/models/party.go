package models

// PoliticalParty is read-only reference data scoped per country.
// (country, title) is unique.
type PoliticalParty struct {
	ID      string `json:"id" db:"id"`
	Country string `json:"country" db:"country"`
	Title   string `json:"title" db:"title"`
}

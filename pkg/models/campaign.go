package models

import "time"

// Campaign is a political effort that recruits volunteers and targets voters
// for contact. Every campaign has a unique owner and a home address; the home
// address country is the default country for imported voter rows.
type Campaign struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	AddressID   string    `json:"address_id" db:"address_id"`
	Name        string    `json:"name" db:"name"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Electoral campaigns
	IsElectoral  bool       `json:"is_electoral" db:"is_electoral"`
	ElectionDate *time.Time `json:"election_date,omitempty" db:"election_date"`
	PartyID      *string    `json:"party_id,omitempty" db:"party_id"`

	// HomeCountry is joined from the campaign's home address.
	HomeCountry string `json:"home_country" db:"home_country"`
}

// CampaignVoter links a campaign to a voter through the voter list that
// introduced the pair. At most one row exists per (campaign, voter).
type CampaignVoter struct {
	ID            string     `json:"id" db:"id"`
	CampaignID    string     `json:"campaign_id" db:"campaign_id"`
	VoterID       string     `json:"voter_id" db:"voter_id"`
	VoterListID   string     `json:"voter_list_id" db:"voter_list_id"`
	LastContacted *time.Time `json:"last_contacted,omitempty" db:"last_contacted"`
	LastServed    *time.Time `json:"last_served,omitempty" db:"last_served"`
	IsActive      bool       `json:"is_active" db:"is_active"`
}

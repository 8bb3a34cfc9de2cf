package models

import "time"

// VoterContact is a contact event: a volunteer contacts a voter on behalf of
// one or more campaigns. The intelligence report is free-text notes captured
// during the contact.
type VoterContact struct {
	ID                 string    `json:"id" db:"id"`
	VoterID            string    `json:"voter_id" db:"voter_id"`
	UserID             string    `json:"user_id" db:"user_id"`
	Method             string    `json:"method" db:"method"`
	IntelligenceReport string    `json:"intelligence_report" db:"intelligence_report"`
	ContactedAt        time.Time `json:"contacted_at" db:"contacted_at"`
}

// CreateVoterContactRequest records a contact event for a voter.
type CreateVoterContactRequest struct {
	VoterID            string   `json:"voter_id" validate:"required"`
	CampaignIDs        []string `json:"campaign_ids" validate:"required,min=1"`
	Method             string   `json:"method" validate:"required,max=20"`
	IntelligenceReport string   `json:"intelligence_report" validate:"max=1000"`
}

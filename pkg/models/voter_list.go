package models

import (
	"fmt"
	"time"
)

// ProcessedCouldNotOpen is the status written when the uploaded file cannot
// be opened. The only fatal ingestion outcome.
const ProcessedCouldNotOpen = "Could not open the file."

// VoterList is one uploaded batch of voter data attributed to a campaign.
type VoterList struct {
	ID         string    `json:"id" db:"id"`
	DumpDate   time.Time `json:"dump_date" db:"dump_date"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	FileName   string    `json:"file_name" db:"file_name"`
	Processed  string    `json:"processed" db:"processed"`
}

// CreateVoterListRequest is the request for uploading a voter list.
type CreateVoterListRequest struct {
	DumpDate time.Time `json:"dump_date" validate:"required"`
	FileName string    `json:"file_name" validate:"required"`
}

// UpdateVoterListActivityRequest toggles a list's activity. The toggle
// propagates to the relations the list introduced.
type UpdateVoterListActivityRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ImportSummary holds the counters accumulated by one ingestion run.
// Success + Duplicates + BadFormat == Total.
type ImportSummary struct {
	Total      int `json:"total"`
	Success    int `json:"success"`
	Duplicates int `json:"duplicates"`
	BadFormat  int `json:"bad_format"`
}

// String renders the summary in the exact format stored on the list.
func (s ImportSummary) String() string {
	return fmt.Sprintf("Imported %d of %d voters.  %d duplicates.  %d bad format.",
		s.Success, s.Total, s.Duplicates, s.BadFormat)
}

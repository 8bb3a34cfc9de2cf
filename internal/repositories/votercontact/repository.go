// Package votercontact records contact events between volunteers and voters.
package votercontact

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/models"
)

const tableName = "voter_contacts"

// VoterContactRepository defines the interface for voter contact operations
type VoterContactRepository interface {
	Create(ctx context.Context, userID string, req models.CreateVoterContactRequest) (*models.VoterContact, error)
}

// Repository implements VoterContactRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new voter contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records one contact event
func (r *Repository) Create(ctx context.Context, userID string, req models.CreateVoterContactRequest) (*models.VoterContact, error) {
	ctx, span := tracing.StartSpan(ctx, "VoterContactRepository.Create")
	defer span.End()

	contact := &models.VoterContact{
		ID:                 uuid.New().String(),
		VoterID:            req.VoterID,
		UserID:             userID,
		Method:             req.Method,
		IntelligenceReport: req.IntelligenceReport,
		ContactedAt:        time.Now(),
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols("id", "voter_id", "user_id", "method", "intelligence_report", "contacted_at").
		Values(contact.ID, contact.VoterID, contact.UserID, contact.Method,
			contact.IntelligenceReport, contact.ContactedAt)

	query, args := ib.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"voter_id": req.VoterID,
		}).Error("failed to create voter contact")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create voter contact")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"voter_contact_id": contact.ID,
		"voter_id":         req.VoterID,
	}).Info("created voter contact")

	return contact, nil
}

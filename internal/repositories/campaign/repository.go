// Package campaign reads campaigns, including the home-address country the
// ingestion pipeline uses as the default for blank country columns.
package campaign

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/models"
)

const tableName = "campaigns"

// CampaignRepository defines the interface for campaign operations
type CampaignRepository interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
}

// Repository implements CampaignRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new campaign repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByID gets a campaign by ID with its home-address country joined in
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	ctx, span := tracing.StartSpan(ctx, "CampaignRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(
		"campaigns.id", "campaigns.owner_id", "campaigns.address_id",
		"campaigns.name", "campaigns.phone_number", "campaigns.is_active",
		"campaigns.created_at", "campaigns.updated_at",
		"campaigns.is_electoral", "campaigns.election_date", "campaigns.party_id",
		"addresses.country AS home_country",
	)
	sb.From(tableName)
	sb.Join("addresses", "addresses.id = campaigns.address_id")
	sb.Where(sb.Equal("campaigns.id", id))

	query, args := sb.Build()
	var campaign models.Campaign
	err := r.db.GetContext(ctx, &campaign, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "campaign %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"campaign_id": id,
		}).Error("failed to get campaign")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get campaign")
	}

	return &campaign, nil
}

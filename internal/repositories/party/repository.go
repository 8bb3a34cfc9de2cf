// Package party reads the political-party reference data. Rows are seeded by
// migration and never written at runtime.
package party

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/models"
)

const tableName = "parties"

var partyStruct = database.NewStruct(new(models.PoliticalParty))

// PartyRepository defines the interface for party operations
type PartyRepository interface {
	ListByCountry(ctx context.Context, country string) ([]models.PoliticalParty, error)
}

// Repository implements PartyRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new party repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByCountry lists the parties operating in a country
func (r *Repository) ListByCountry(ctx context.Context, country string) ([]models.PoliticalParty, error) {
	ctx, span := tracing.StartSpan(ctx, "PartyRepository.ListByCountry")
	defer span.End()

	sb := partyStruct.SelectFrom(tableName)
	sb.Where(sb.Equal("country", country))
	sb.OrderBy("title")

	query, args := sb.Build()
	var parties []models.PoliticalParty
	err := r.db.SelectContext(ctx, &parties, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"country": country,
		}).Error("failed to list parties")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list parties")
	}

	return parties, nil
}

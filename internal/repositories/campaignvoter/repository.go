// Package campaignvoter persists the campaign-to-voter relation rows and
// answers the dialing queries volunteers work from.
package campaignvoter

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/models"
)

const tableName = "campaigns_to_voters"

// Voters with every phone blank or flagged wrong more than once are not
// dialable. Served rows rest for two days, contacted rows for a year.
const (
	maxWrongReports    = 1
	serveCooldownDays  = 2
	contactCooldownDay = 365
)

// CampaignVoterRepository defines the interface for campaign-voter relation operations
type CampaignVoterRepository interface {
	BulkCreate(ctx context.Context, relations []models.CampaignVoter) error
	UpdateLastContacted(ctx context.Context, campaignIDs []string, voterID string) error
	UpdateLastServed(ctx context.Context, campaignID string, voterIDs []string) error
	SetActiveForList(ctx context.Context, voterListID string, isActive bool) error
	ListVotersToDial(ctx context.Context, campaignID string, limit int) ([]models.VoterDialInfo, error)
}

// Repository implements CampaignVoterRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new campaign-voter repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// BulkCreate inserts the relations queued by an ingestion run in one
// statement. A relation that already exists for the (campaign, voter) pair,
// from an earlier list or a concurrent run, is silently skipped.
func (r *Repository) BulkCreate(ctx context.Context, relations []models.CampaignVoter) error {
	ctx, span := tracing.StartSpan(ctx, "CampaignVoterRepository.BulkCreate")
	defer span.End()

	if len(relations) == 0 {
		return nil
	}

	ib := database.NewInsertBuilder()
	ib = ib.InsertInto(tableName).
		Cols("id", "campaign_id", "voter_id", "voter_list_id", "last_contacted", "last_served", "is_active")
	for _, relation := range relations {
		id := relation.ID
		if id == "" {
			id = uuid.New().String()
		}
		ib = ib.Values(id, relation.CampaignID, relation.VoterID, relation.VoterListID,
			relation.LastContacted, relation.LastServed, relation.IsActive)
	}
	ib.OnConflictDoNothing("campaign_id", "voter_id")

	query, args := ib.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"relation_count": len(relations),
		}).Error("failed to bulk create campaign-voter relations")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create campaign-voter relations")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"relation_count": len(relations),
	}).Info("created campaign-voter relations")

	return nil
}

// UpdateLastContacted stamps last_contacted on the relations between the
// voter and each campaign the contact was made on behalf of.
func (r *Repository) UpdateLastContacted(ctx context.Context, campaignIDs []string, voterID string) error {
	ctx, span := tracing.StartSpan(ctx, "CampaignVoterRepository.UpdateLastContacted")
	defer span.End()

	if len(campaignIDs) == 0 {
		return nil
	}

	ids := make([]any, len(campaignIDs))
	for i, id := range campaignIDs {
		ids[i] = id
	}

	ub := database.NewUpdateBuilder()
	ub.Update(tableName).
		Set(ub.Assign("last_contacted", sqlbuilder.Raw("NOW()"))).
		Where(
			ub.In("campaign_id", ids...),
			ub.Equal("voter_id", voterID),
		)

	query, args := ub.Build()
	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"voter_id": voterID,
		}).Error("failed to update last contacted")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update last contacted")
	}

	return nil
}

// UpdateLastServed stamps last_served on the campaign's relations for the
// voters just handed to a volunteer.
func (r *Repository) UpdateLastServed(ctx context.Context, campaignID string, voterIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "CampaignVoterRepository.UpdateLastServed")
	defer span.End()

	if len(voterIDs) == 0 {
		return nil
	}

	ids := make([]any, len(voterIDs))
	for i, id := range voterIDs {
		ids[i] = id
	}

	ub := database.NewUpdateBuilder()
	ub.Update(tableName).
		Set(ub.Assign("last_served", sqlbuilder.Raw("NOW()"))).
		Where(
			ub.Equal("campaign_id", campaignID),
			ub.In("voter_id", ids...),
		)

	query, args := ub.Build()
	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"campaign_id": campaignID,
			"voter_count": len(voterIDs),
		}).Error("failed to update last served")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update last served")
	}

	return nil
}

// SetActiveForList propagates a list's activity flag to the relations it
// introduced.
func (r *Repository) SetActiveForList(ctx context.Context, voterListID string, isActive bool) error {
	ctx, span := tracing.StartSpan(ctx, "CampaignVoterRepository.SetActiveForList")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName).
		Set(ub.Assign("is_active", isActive)).
		Where(ub.Equal("voter_list_id", voterListID))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"voter_list_id": voterListID,
		}).Error("failed to set relation activity for list")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set relation activity")
	}

	rows, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"voter_list_id": voterListID,
		"is_active":     isActive,
		"rows_affected": rows,
	}).Info("updated relation activity for list")

	return nil
}

// ListVotersToDial returns dialable voters for a campaign: active relation
// and voter, at least one phone that is non-empty and not repeatedly reported
// wrong, not served within the cooldown, not contacted within the past year.
func (r *Repository) ListVotersToDial(ctx context.Context, campaignID string, limit int) ([]models.VoterDialInfo, error) {
	ctx, span := tracing.StartSpan(ctx, "CampaignVoterRepository.ListVotersToDial")
	defer span.End()

	if limit < 1 {
		limit = 20
	}

	servedCutoff := time.Now().AddDate(0, 0, -serveCooldownDays)
	contactedCutoff := time.Now().AddDate(0, 0, -contactCooldownDay)

	sb := database.NewSelectBuilder()
	sb.Select(
		"voters.id", "voters.first_name", "voters.last_name", "voters.gender",
		"voters.phone_number1", "voters.phone_number2",
		"addresses.street", "addresses.city", "addresses.state",
	)
	sb.From(tableName)
	sb.Join("voters", "voters.id = "+tableName+".voter_id")
	sb.Join("addresses", "addresses.id = voters.address_id")
	sb.Where(
		sb.Equal(tableName+".campaign_id", campaignID),
		sb.Equal(tableName+".is_active", true),
		sb.Equal("voters.is_active", true),
		sb.Or(
			sb.And(
				sb.NotEqual("voters.phone_number1", ""),
				sb.LessEqualThan("voters.wrong_phone_number1", maxWrongReports),
			),
			sb.And(
				sb.NotEqual("voters.phone_number2", ""),
				sb.LessEqualThan("voters.wrong_phone_number2", maxWrongReports),
			),
		),
		sb.Or(
			sb.IsNull(tableName+".last_served"),
			sb.LessThan(tableName+".last_served", servedCutoff),
		),
		sb.Or(
			sb.IsNull(tableName+".last_contacted"),
			sb.LessThan(tableName+".last_contacted", contactedCutoff),
		),
	)
	sb.OrderBy(tableName + ".last_served ASC NULLS FIRST")
	sb.Limit(limit)

	query, args := sb.Build()
	var voters []models.VoterDialInfo
	err := r.db.SelectContext(ctx, &voters, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"campaign_id": campaignID,
		}).Error("failed to list voters to dial")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list voters to dial")
	}

	return voters, nil
}

// Package voterlist persists uploaded voter lists and their processing
// outcome.
package voterlist

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/models"
)

const tableName = "voter_lists"

var voterListStruct = database.NewStruct(new(models.VoterList))

// VoterListRepository defines the interface for voter list operations
type VoterListRepository interface {
	Create(ctx context.Context, campaignID string, req models.CreateVoterListRequest) (*models.VoterList, error)
	GetByID(ctx context.Context, id string) (*models.VoterList, error)
	SetProcessed(ctx context.Context, listID, processed string, isActive bool) error
	SetActive(ctx context.Context, listID string, isActive bool) error
}

// Repository implements VoterListRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new voter list repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records an uploaded list before processing. The list starts inactive
// with an empty processed summary; the ingestion run fills both in.
func (r *Repository) Create(ctx context.Context, campaignID string, req models.CreateVoterListRequest) (*models.VoterList, error) {
	ctx, span := tracing.StartSpan(ctx, "VoterListRepository.Create")
	defer span.End()

	list := &models.VoterList{
		ID:         uuid.New().String(),
		DumpDate:   req.DumpDate,
		CampaignID: campaignID,
		UploadedAt: time.Now(),
		IsActive:   false,
		FileName:   req.FileName,
		Processed:  "",
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols("id", "dump_date", "campaign_id", "uploaded_at", "is_active", "file_name", "processed").
		Values(list.ID, list.DumpDate, list.CampaignID, list.UploadedAt, list.IsActive, list.FileName, list.Processed)

	query, args := ib.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"campaign_id": campaignID,
			"file_name":   req.FileName,
		}).Error("failed to create voter list")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create voter list")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"voter_list_id": list.ID,
		"campaign_id":   campaignID,
	}).Info("created voter list")

	return list, nil
}

// GetByID gets a voter list by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.VoterList, error) {
	ctx, span := tracing.StartSpan(ctx, "VoterListRepository.GetByID")
	defer span.End()

	sb := voterListStruct.SelectFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var list models.VoterList
	err := r.db.GetContext(ctx, &list, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "voter list %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get voter list")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get voter list")
	}

	return &list, nil
}

// SetProcessed writes the run outcome onto the list
func (r *Repository) SetProcessed(ctx context.Context, listID, processed string, isActive bool) error {
	ctx, span := tracing.StartSpan(ctx, "VoterListRepository.SetProcessed")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName).
		Set(
			ub.Assign("processed", processed),
			ub.Assign("is_active", isActive),
		).
		Where(ub.Equal("id", listID))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"voter_list_id": listID,
		}).Error("failed to set voter list processed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set voter list processed")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "voter list %s does not exist", listID)
	}

	return nil
}

// SetActive toggles the list's activity flag
func (r *Repository) SetActive(ctx context.Context, listID string, isActive bool) error {
	ctx, span := tracing.StartSpan(ctx, "VoterListRepository.SetActive")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName).
		Set(ub.Assign("is_active", isActive)).
		Where(ub.Equal("id", listID))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"voter_list_id": listID,
		}).Error("failed to set voter list activity")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set voter list activity")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "voter list %s does not exist", listID)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"voter_list_id": listID,
		"is_active":     isActive,
	}).Info("updated voter list activity")

	return nil
}

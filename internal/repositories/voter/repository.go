// Package voter persists voters and answers the ingestion dedup lookup.
package voter

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/ingest"
	"github.com/turnoutcrew/canvass/pkg/models"
)

const tableName = "voters"

var voterStruct = database.NewStruct(new(models.Voter))

// VoterRepository defines the interface for voter operations
type VoterRepository interface {
	Create(ctx context.Context, fields models.VoterFields, addressID string, list models.VoterList) (*models.Voter, error)
	GetByID(ctx context.Context, id string) (*models.Voter, error)
	ActiveVoterExists(ctx context.Context, identity ingest.Identity) (bool, error)
	FlagContactField(ctx context.Context, voterID string, field models.FlagField) (*models.Voter, error)
}

// Repository implements VoterRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new voter repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a voter imported from the given list. The voter starts
// active with zeroed flag counters; dump_date comes from the list.
func (r *Repository) Create(ctx context.Context, fields models.VoterFields, addressID string, list models.VoterList) (*models.Voter, error) {
	ctx, span := tracing.StartSpan(ctx, "VoterRepository.Create")
	defer span.End()

	now := time.Now()
	voter := &models.Voter{
		ID:               uuid.New().String(),
		FirstName:        fields.FirstName,
		LastName:         fields.LastName,
		DOB:              fields.DOB,
		Gender:           fields.Gender,
		AffiliationID:    fields.AffiliationID,
		IsActive:         true,
		RegistrationDate: fields.RegistrationDate,
		RegistrarID:      fields.RegistrarID,
		DumpDate:         list.DumpDate,
		AddressID:        addressID,
		PhoneNumber1:     fields.PhoneNumber1,
		PhoneNumber2:     fields.PhoneNumber2,
		Email:            fields.Email,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols("id", "first_name", "last_name", "dob", "gender", "affiliation_id",
			"is_active", "registration_date", "registrar_id", "dump_date", "address_id",
			"phone_number1", "phone_number2", "email",
			"wrong_address", "wrong_phone_number1", "wrong_phone_number2",
			"created_at", "updated_at").
		Values(voter.ID, voter.FirstName, voter.LastName, voter.DOB, voter.Gender, voter.AffiliationID,
			voter.IsActive, voter.RegistrationDate, voter.RegistrarID, voter.DumpDate, voter.AddressID,
			voter.PhoneNumber1, voter.PhoneNumber2, voter.Email,
			0, 0, 0,
			voter.CreatedAt, voter.UpdatedAt)

	query, args := ib.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"registrar_id":  voter.RegistrarID,
			"voter_list_id": list.ID,
		}).Error("failed to create voter")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create voter")
	}

	return voter, nil
}

// GetByID gets a voter by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Voter, error) {
	ctx, span := tracing.StartSpan(ctx, "VoterRepository.GetByID")
	defer span.End()

	sb := voterStruct.SelectFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var voter models.Voter
	err := r.db.GetContext(ctx, &voter, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "voter %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get voter")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get voter")
	}

	return &voter, nil
}

// ActiveVoterExists reports whether an active voter with the given dedup
// identity is on file. The registrar id compares case-insensitively; the
// address fields compare against the joined canonical address.
func (r *Repository) ActiveVoterExists(ctx context.Context, identity ingest.Identity) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "VoterRepository.ActiveVoterExists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("voters")
	sb.Join("addresses", "addresses.id = voters.address_id")
	sb.Where(
		sb.Equal("voters.is_active", true),
		sb.Equal("LOWER(voters.registrar_id)", identity.RegistrarID),
		sb.Equal("addresses.street", identity.Street),
		sb.Equal("addresses.country", identity.Country),
		sb.Equal("addresses.state", identity.State),
	)

	query, args := sb.Build()
	var count int
	err := r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to check for existing voter")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check for existing voter")
	}

	return count > 0, nil
}

// FlagContactField increments the wrong-info counter matching the reported
// field. Stored contact info is never overwritten by a report.
func (r *Repository) FlagContactField(ctx context.Context, voterID string, field models.FlagField) (*models.Voter, error) {
	ctx, span := tracing.StartSpan(ctx, "VoterRepository.FlagContactField")
	defer span.End()

	var column string
	switch field {
	case models.FlagFieldAddress:
		column = "wrong_address"
	case models.FlagFieldPhoneNumber1:
		column = "wrong_phone_number1"
	case models.FlagFieldPhoneNumber2:
		column = "wrong_phone_number2"
	default:
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown flag field %q", field)
	}

	ub := database.NewUpdateBuilder()
	ub.Update(tableName).
		Set(
			ub.Assign(column, sqlbuilder.Raw(column+" + 1")),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("id", voterID))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"voter_id": voterID,
			"field":    field,
		}).Error("failed to flag voter contact field")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to flag voter contact field")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "voter %s does not exist", voterID)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"voter_id": voterID,
		"field":    field,
	}).Debug("flagged voter contact field")

	return r.GetByID(ctx, voterID)
}

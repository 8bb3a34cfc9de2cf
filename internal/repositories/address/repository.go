// Package address persists canonical addresses. Addresses are immutable and
// shared: many voters reference the same row, and the dedup key
// (street, city, state, country, postal_code) is unique.
package address

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

const tableName = "addresses"

var addressStruct = database.NewStruct(new(models.Address))

// AddressRepository defines the interface for address operations
type AddressRepository interface {
	GetOrCreate(ctx context.Context, fields models.AddressFields) (*models.Address, error)
	GetByID(ctx context.Context, id string) (*models.Address, error)
}

// Repository implements AddressRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new address repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetOrCreate returns the address row matching the given fields, inserting it
// first if absent. The insert races safely against concurrent ingestion runs:
// a conflicting insert is a no-op and the existing row is read back.
func (r *Repository) GetOrCreate(ctx context.Context, fields models.AddressFields) (*models.Address, error) {
	ctx, span := tracing.StartSpan(ctx, "AddressRepository.GetOrCreate")
	defer span.End()

	id := uuid.New().String()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols("id", "street", "city", "state", "country", "postal_code", "created_at").
		Values(id, fields.Street, fields.City, fields.State, fields.Country, fields.PostalCode, time.Now()).
		OnConflictDoNothing("street", "city", "state", "country", "postal_code").
		Returning("id", "created_at")

	query, args := ib.Build()

	var created models.Address
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&created.ID, &created.CreatedAt)
	if err == nil {
		created.Street = fields.Street
		created.City = fields.City
		created.State = fields.State
		created.Country = fields.Country
		created.PostalCode = fields.PostalCode
		return &created, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert address")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert address")
	}

	// Conflict: the row already exists, read it back.
	sb := addressStruct.SelectFrom(tableName)
	sb.Where(
		sb.Equal("street", fields.Street),
		sb.Equal("city", fields.City),
		sb.Equal("state", fields.State),
		sb.Equal("country", fields.Country),
		sb.Equal("postal_code", fields.PostalCode),
	)

	query, args = sb.Build()
	var existing models.Address
	err = r.db.GetContext(ctx, &existing, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get address after conflict")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get address")
	}

	return &existing, nil
}

// GetByID gets an address by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Address, error) {
	ctx, span := tracing.StartSpan(ctx, "AddressRepository.GetByID")
	defer span.End()

	sb := addressStruct.SelectFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var addr models.Address
	err := r.db.GetContext(ctx, &addr, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "address %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get address")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get address")
	}

	return &addr, nil
}

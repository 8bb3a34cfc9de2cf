package ingest

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"

	"github.com/turnoutcrew/canvass/pkg/models"
	"github.com/turnoutcrew/canvass/pkg/normalizers"
)

var validate = validator.New()

// RequiredColumns are the columns every import row must carry. A row missing
// any of them is malformed; there are no partial rows.
var RequiredColumns = []string{
	"first_name", "last_name", "dob", "gender", "affiliation",
	"registration_date", "registrar_id", "phone_number1", "phone_number2",
	"email", "street", "city", "state", "country", "postal_code",
}

// ParseRow validates and normalizes the voter fields of one raw row. Any
// returned error classifies the whole row as malformed: a missing column, an
// unparsable non-empty date, an empty name, or a field failing shape
// validation. ParseRow is pure.
func ParseRow(row map[string]string) (*models.VoterFields, error) {
	for _, col := range RequiredColumns {
		if _, ok := row[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	dob, err := parseDate(row["dob"])
	if err != nil {
		return nil, fmt.Errorf("invalid dob: %w", err)
	}
	registered, err := parseDate(row["registration_date"])
	if err != nil {
		return nil, fmt.Errorf("invalid registration_date: %w", err)
	}

	fields := &models.VoterFields{
		FirstName:        normalizers.ApplyChain(row["first_name"], "trim", "title"),
		LastName:         normalizers.ApplyChain(row["last_name"], "trim", "title"),
		DOB:              dob,
		Gender:           normalizers.ApplyChain(row["gender"], "trim", "uppercase"),
		RegistrationDate: registered,
		RegistrarID:      normalizers.Trim(row["registrar_id"]),
		PhoneNumber1:     normalizers.ApplyChain(row["phone_number1"], "trim", "nphone"),
		PhoneNumber2:     normalizers.ApplyChain(row["phone_number2"], "trim", "nphone"),
		Email:            normalizers.ApplyChain(row["email"], "trim", "nemail"),
	}

	if err := validate.Struct(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseDate parses a date column. Empty means unknown; a non-empty value may
// be in any format a general-purpose date parser understands.
func parseDate(s string) (*time.Time, error) {
	s = normalizers.Trim(s)
	if s == "" {
		return nil, nil
	}
	parsed, err := dateparse.ParseAny(s)
	if err != nil {
		return nil, err
	}
	date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return &date, nil
}

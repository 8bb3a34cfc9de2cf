// Package addressing canonicalizes free-text postal addresses into the
// comparable form used by the address dedup key.
package addressing

import (
	"fmt"
	"strings"

	"github.com/turnoutcrew/canvass/pkg/models"
	"github.com/turnoutcrew/canvass/pkg/normalizers"
)

// ValidationError reports an address field that failed country-specific
// validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize validates and canonicalizes raw address fields:
// trim+title-case city, trim postal code, upper-case state, and street
// normalization with designator abbreviation and whitespace collapse.
// The state and postal code must be valid for the country when the country
// has a registered ruleset. Normalize is idempotent.
func Normalize(raw models.AddressFields) (models.AddressFields, error) {
	fields := models.AddressFields{
		Street:     normalizers.NormalizeStreet(raw.Street),
		City:       normalizers.ApplyChain(raw.City, "trim", "title"),
		State:      strings.ToUpper(strings.TrimSpace(raw.State)),
		Country:    strings.ToUpper(strings.TrimSpace(raw.Country)),
		PostalCode: strings.TrimSpace(raw.PostalCode),
	}

	rs := RulesetFor(fields.Country)
	if rs == nil {
		return fields, nil
	}

	if fields.State != "" && !rs.ValidState(fields.State) {
		return fields, &ValidationError{Field: "state", Message: fmt.Sprintf("invalid state for %s", fields.Country)}
	}
	if fields.PostalCode != "" && !rs.ValidPostalCode(fields.PostalCode) {
		return fields, &ValidationError{Field: "postal_code", Message: fmt.Sprintf("invalid postal code for %s", fields.Country)}
	}

	return fields, nil
}

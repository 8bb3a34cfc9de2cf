package addressing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoutcrew/canvass/pkg/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      models.AddressFields
		expected models.AddressFields
	}{
		{
			name: "street abbreviation and whitespace",
			raw: models.AddressFields{
				Street:     "217  Tyne   Road",
				City:       "salt lake city",
				State:      "ut",
				Country:    "US",
				PostalCode: " 84101 ",
			},
			expected: models.AddressFields{
				Street:     "217 Tyne Rd",
				City:       "Salt Lake City",
				State:      "UT",
				Country:    "US",
				PostalCode: "84101",
			},
		},
		{
			name: "unregistered country accepts any state",
			raw: models.AddressFields{
				Street:     "12 rue de la paix",
				City:       "paris",
				State:      "zz",
				Country:    "FR",
				PostalCode: "75002",
			},
			expected: models.AddressFields{
				Street:     "12 Rue De La Paix",
				City:       "Paris",
				State:      "ZZ",
				Country:    "FR",
				PostalCode: "75002",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fields)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := models.AddressFields{
		Street:     "217  Tyne   Road",
		City:       "salt lake city",
		State:      "ut",
		Country:    "US",
		PostalCode: "84101",
	}

	once, err := Normalize(raw)
	require.NoError(t, err)

	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeInvalidState(t *testing.T) {
	_, err := Normalize(models.AddressFields{
		Street:     "1 Main Street",
		City:       "Springfield",
		State:      "XX",
		Country:    "US",
		PostalCode: "84101",
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "state", verr.Field)
}

func TestNormalizeInvalidPostalCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{name: "five digit", code: "84101", ok: true},
		{name: "zip plus four", code: "84101-1234", ok: true},
		{name: "too short", code: "841", ok: false},
		{name: "letters", code: "ABCDE", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(models.AddressFields{
				Street:     "1 Main Street",
				City:       "Springfield",
				State:      "UT",
				Country:    "US",
				PostalCode: tt.code,
			})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "postal_code", verr.Field)
		})
	}
}

package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() map[string]string {
	return map[string]string{
		"first_name":        "john",
		"last_name":         "o'brien",
		"dob":               "1984-03-12",
		"gender":            "m",
		"affiliation":       "Democratic",
		"registration_date": "2020-01-05",
		"registrar_id":      "REG-00042",
		"phone_number1":     "5551234567",
		"phone_number2":     "",
		"email":             "john@example.com",
		"street":            "217 Tyne Road",
		"city":              "portland",
		"state":             "OR",
		"country":           "US",
		"postal_code":       "97201",
	}
}

func TestParseRow(t *testing.T) {
	fields, err := ParseRow(validRow())
	require.NoError(t, err)

	assert.Equal(t, "John", fields.FirstName)
	assert.Equal(t, "O'Brien", fields.LastName)
	assert.Equal(t, "M", fields.Gender)
	assert.Equal(t, "REG-00042", fields.RegistrarID)
	assert.Equal(t, "5551234567", fields.PhoneNumber1)
	assert.Equal(t, "john@example.com", fields.Email)

	require.NotNil(t, fields.DOB)
	assert.Equal(t, time.Date(1984, 3, 12, 0, 0, 0, 0, time.UTC), *fields.DOB)
	require.NotNil(t, fields.RegistrationDate)
	assert.Equal(t, time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), *fields.RegistrationDate)
}

func TestParseRowCleansContactFields(t *testing.T) {
	row := validRow()
	row["phone_number1"] = "(555) 123-4567"
	row["phone_number2"] = "555.987.6543"
	row["email"] = "  John@Example.COM "

	fields, err := ParseRow(row)
	require.NoError(t, err)
	assert.Equal(t, "5551234567", fields.PhoneNumber1)
	assert.Equal(t, "5559876543", fields.PhoneNumber2)
	assert.Equal(t, "john@example.com", fields.Email)
}

func TestParseRowEmptyDatesAreUnknown(t *testing.T) {
	row := validRow()
	row["dob"] = ""
	row["registration_date"] = "  "

	fields, err := ParseRow(row)
	require.NoError(t, err)
	assert.Nil(t, fields.DOB)
	assert.Nil(t, fields.RegistrationDate)
}

func TestParseRowLooseDateFormats(t *testing.T) {
	row := validRow()
	row["dob"] = "03/12/1984"

	fields, err := ParseRow(row)
	require.NoError(t, err)
	require.NotNil(t, fields.DOB)
	assert.Equal(t, time.Date(1984, 3, 12, 0, 0, 0, 0, time.UTC), *fields.DOB)
}

func TestParseRowMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(row map[string]string)
	}{
		{name: "missing column", mutate: func(row map[string]string) { delete(row, "email") }},
		{name: "empty first name", mutate: func(row map[string]string) { row["first_name"] = "  " }},
		{name: "empty last name", mutate: func(row map[string]string) { row["last_name"] = "" }},
		{name: "unparsable dob", mutate: func(row map[string]string) { row["dob"] = "not a date" }},
		{name: "invalid gender", mutate: func(row map[string]string) { row["gender"] = "X" }},
		{name: "invalid email", mutate: func(row map[string]string) { row["email"] = "not-an-email" }},
		{name: "phone too long", mutate: func(row map[string]string) { row["phone_number1"] = "5551234567890" }},
		{name: "name too long", mutate: func(row map[string]string) {
			row["first_name"] = "Abcdefghijklmnopqrstuvwxyzabcdefg"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)
			_, err := ParseRow(row)
			assert.Error(t, err)
		})
	}
}

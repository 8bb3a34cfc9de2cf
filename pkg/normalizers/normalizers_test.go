package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleCase(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple words", input: "tyne road", expected: "Tyne Road"},
		{name: "leading number", input: "217 tyne road", expected: "217 Tyne Road"},
		{name: "single letters", input: "59 s byron st", expected: "59 S Byron St"},
		{name: "already cased", input: "Main Street", expected: "Main Street"},
		{name: "all caps", input: "MAIN STREET", expected: "Main Street"},
		{name: "apostrophe boundary", input: "o'neill", expected: "O'Neill"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleCase(tt.input))
		})
	}
}

func TestNormalizeStreet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "abbreviates road", input: "217  Tyne   Road", expected: "217 Tyne Rd"},
		{name: "abbreviates street", input: "123 main street", expected: "123 Main Str"},
		{name: "multiple substitutions", input: "10 Park Avenue Suite 4", expected: "10 Park Ave Ste 4"},
		{name: "apartment", input: "9 elm parkway apartment 2", expected: "9 Elm Pkwy Apt 2"},
		{name: "word boundary only", input: "1 Broadstreet Way", expected: "1 Broadstreet Way"},
		{name: "trims", input: "  5 Oak Road  ", expected: "5 Oak Rd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeStreet(tt.input))
		})
	}
}

func TestNormalizeStreetIdempotent(t *testing.T) {
	inputs := []string{"217  Tyne   Road", "123 main street", "59 S Byron St", "10 Park Avenue Suite 4"}
	for _, input := range inputs {
		once := NormalizeStreet(input)
		assert.Equal(t, once, NormalizeStreet(once), "normalization should be idempotent for %q", input)
	}
}

func TestApplyChain(t *testing.T) {
	result := ApplyChain("  jane  ", "trim", "title")
	assert.Equal(t, "Jane", result)

	// Unknown normalizers pass the value through unchanged
	assert.Equal(t, "x", ApplyChain("x", "does_not_exist"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "8015551234", NormalizePhone("(801) 555-1234"))
	assert.Equal(t, "", NormalizePhone("none"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

package affiliation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoutcrew/canvass/pkg/models"
)

type fakePartyLister struct {
	parties map[string][]models.PoliticalParty
	calls   int
}

func (f *fakePartyLister) ListByCountry(ctx context.Context, country string) ([]models.PoliticalParty, error) {
	f.calls++
	return f.parties[country], nil
}

func usParties() *fakePartyLister {
	return &fakePartyLister{
		parties: map[string][]models.PoliticalParty{
			"US": {
				{ID: "dem", Country: "US", Title: "Democratic Party"},
				{ID: "rep", Country: "US", Title: "Republican Party"},
				{ID: "lib", Country: "US", Title: "Libertarian Party"},
			},
		},
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected *string
	}{
		{name: "exact fragment", text: "Democratic", expected: strPtr("dem")},
		{name: "case insensitive", text: "republican", expected: strPtr("rep")},
		{name: "whitespace trimmed", text: "  Libertarian  ", expected: strPtr("lib")},
		{name: "empty means unaffiliated", text: "", expected: nil},
		{name: "no match", text: "Smurf", expected: nil},
		{name: "ambiguous means unaffiliated", text: "Party", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(usParties())
			id, err := resolver.Resolve(context.Background(), "US", tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestResolveCachesPartyList(t *testing.T) {
	lister := usParties()
	resolver := NewResolver(lister)

	for i := 0; i < 5; i++ {
		_, err := resolver.Resolve(context.Background(), "US", "Democratic")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, lister.calls)
}

func TestResolveUnknownCountry(t *testing.T) {
	resolver := NewResolver(usParties())
	id, err := resolver.Resolve(context.Background(), "FR", "Democratic")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func strPtr(s string) *string {
	return &s
}

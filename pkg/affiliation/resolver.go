// Package affiliation maps free-text party names to known political parties.
package affiliation

import (
	"context"
	"strings"

	"github.com/turnoutcrew/canvass/pkg/models"
)

// PartyLister lists the political parties operating in a country.
type PartyLister interface {
	ListByCountry(ctx context.Context, country string) ([]models.PoliticalParty, error)
}

// Resolver resolves free-text affiliation strings against the parties of a
// country. Party reference data is small and read-only, so each country's
// list is fetched once and cached for the resolver's lifetime (one ingestion
// run).
type Resolver struct {
	parties PartyLister
	cache   map[string][]models.PoliticalParty
}

// NewResolver creates a resolver backed by the given party source.
func NewResolver(parties PartyLister) *Resolver {
	return &Resolver{
		parties: parties,
		cache:   make(map[string][]models.PoliticalParty),
	}
}

// Resolve returns the ID of the single party in the country whose title
// contains the given text, case-insensitively. Empty input, no match, and
// ambiguous input (more than one match) all resolve to nil, meaning
// unaffiliated.
func (r *Resolver) Resolve(ctx context.Context, country, text string) (*string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	parties, ok := r.cache[country]
	if !ok {
		var err error
		parties, err = r.parties.ListByCountry(ctx, country)
		if err != nil {
			return nil, err
		}
		r.cache[country] = parties
	}

	needle := strings.ToLower(text)
	var match *string
	for _, party := range parties {
		if strings.Contains(strings.ToLower(party.Title), needle) {
			if match != nil {
				return nil, nil // ambiguous; ignore the party information
			}
			id := party.ID
			match = &id
		}
	}
	return match, nil
}

package addressing

import "regexp"

// Ruleset holds country-specific address validation data. Countries without a
// registered ruleset accept any state and postal code.
type Ruleset struct {
	// States is the set of valid two-letter subdivision codes.
	States map[string]struct{}
	// PostalCode reports whether a postal code is well formed. nil means no
	// format data exists for the country.
	PostalCode *regexp.Regexp
}

// rulesets maps country code to its validation ruleset. Adding a country is a
// data change, not a code change.
var rulesets = map[string]*Ruleset{
	"US": {
		States:     stateSet(usStates),
		PostalCode: regexp.MustCompile(`^\d{5}(?:-\d{4})?$`),
	},
}

// RulesetFor returns the ruleset registered for a country, or nil when the
// country has no subdivision or postal-format data.
func RulesetFor(country string) *Ruleset {
	return rulesets[country]
}

// RegisterRuleset adds or replaces the ruleset for a country.
func RegisterRuleset(country string, rs *Ruleset) {
	rulesets[country] = rs
}

// ValidState reports whether the state code is valid for the ruleset.
func (rs *Ruleset) ValidState(state string) bool {
	if len(rs.States) == 0 {
		return true
	}
	_, ok := rs.States[state]
	return ok
}

// ValidPostalCode reports whether the postal code is valid for the ruleset.
func (rs *Ruleset) ValidPostalCode(code string) bool {
	if rs.PostalCode == nil {
		return true
	}
	return rs.PostalCode.MatchString(code)
}

func stateSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// usStates covers the 50 states, DC, and the territories with USPS codes.
var usStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL",
	"GA", "HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME",
	"MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH",
	"NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI",
	"SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI",
	"WY", "AS", "GU", "MP", "PR", "VI",
}

// Package travel holds the rule resolution, stay duration, stay validation,
// sync-gap and visa status logic. Every function here is pure: the profile,
// stays and rule cache are passed in by the caller and never mutated.
package travel

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates stay identifiers. Tests may replace it.
var NewID = uuid.NewString

// FindApplicableRule returns the rule of citizenship's rule set that applies
// to the stay's destination. The second result is false when the rule set has
// not been synced or holds no rule for the destination.
//
// When a rule set lists more than one rule for the same destination the first
// one in sequence wins.
func FindApplicableRule(stay Stay, citizenship string, cache RuleCache) (Rule, bool) {
	set, ok := cache[citizenship]
	if !ok {
		return Rule{}, false
	}
	for _, r := range set.Rules {
		if r.Applicability.DestinationCountryCode == stay.CountryCode {
			return r, true
		}
	}
	return Rule{}, false
}

// ValidateNewStay checks user input for a new stay and returns the stay ready
// to be persisted. The fields are stored verbatim.
func ValidateNewStay(countryCode, entryDate, exitDate string) (Stay, error) {
	for _, f := range []struct{ name, value string }{
		{"country", countryCode},
		{"entry date", entryDate},
		{"exit date", exitDate},
	} {
		if strings.TrimSpace(f.value) == "" {
			return Stay{}, &ValidationError{Kind: MissingField, Field: f.name}
		}
	}

	entry, err := ParseDate(entryDate)
	if err != nil {
		return Stay{}, &ValidationError{Kind: InvalidDate, Field: "entry date"}
	}
	exit, err := ParseDate(exitDate)
	if err != nil {
		return Stay{}, &ValidationError{Kind: InvalidDate, Field: "exit date"}
	}
	if exit.Before(entry) {
		return Stay{}, &ValidationError{Kind: InvalidRange}
	}

	return Stay{
		ID:          NewID(),
		CountryCode: countryCode,
		EntryDate:   entryDate,
		ExitDate:    exitDate,
	}, nil
}

// RulesNeeded returns the citizenships that have no rule set in cache yet, in
// input order and without duplicates. Cached rule sets of citizenships no
// longer held are left alone.
func RulesNeeded(citizenships []string, cache RuleCache) []string {
	needed := []string{}
	seen := make(map[string]bool, len(citizenships))
	for _, code := range citizenships {
		if seen[code] {
			continue
		}
		seen[code] = true
		if _, ok := cache[code]; !ok {
			needed = append(needed, code)
		}
	}
	return needed
}

// UniqueCodes trims, uppercases and deduplicates country codes, keeping the
// order of first appearance and dropping empty entries.
func UniqueCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

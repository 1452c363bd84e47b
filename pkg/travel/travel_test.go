package travel

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rule(dest, visaType string, required bool) Rule {
	return Rule{
		EntryRule:     EntryRule{ID: dest + "-" + visaType, VisaType: visaType, MaxStayDays: 90},
		Applicability: RuleApplicability{DestinationCountryCode: dest},
		Mapping:       RuleMapping{VisaRequired: required},
	}
}

func TestDurationDaysSameDay(t *testing.T) {
	for _, s := range []string{"2024-01-01", "2024-02-29", "1999-12-31", "2024-03-31"} {
		d, err := ParseDate(s)
		require.NoError(t, err)
		assert.Equal(t, 1, DurationDays(d, d), s)
	}
}

func TestDurationDaysMonotonic(t *testing.T) {
	entry, err := ParseDate("2024-03-25")
	require.NoError(t, err)

	prev := 0
	exit := entry
	// Crosses a month boundary and the European DST change.
	for i := 0; i < 40; i++ {
		got := DurationDays(entry, exit)
		assert.Equal(t, i+1, got)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
		exit = exit.AddDate(0, 0, 1)
	}
}

func TestDurationDaysIgnoresTimeOfDay(t *testing.T) {
	tests := []struct {
		name        string
		entry, exit string
		want        int
	}{
		{"plain dates", "2024-01-01", "2024-01-10", 10},
		{"late entry timestamp", "2024-01-01T23:59:00Z", "2024-01-10T00:01:00Z", 10},
		{"sqlite timestamp", "2024-01-01 18:00:00", "2024-01-02 06:00:00", 2},
		{"leap year", "2024-02-28", "2024-03-01", 3},
		{"offset converted to UTC", "2024-01-01T23:00:00-02:00", "2024-01-02", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Stay{EntryDate: tt.entry, ExitDate: tt.exit}.Duration()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationDaysInLocalZone(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	entry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exit := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC).In(loc)
	assert.Equal(t, 10, DurationDays(entry, exit))
}

func TestStayDurationInvalidDate(t *testing.T) {
	_, err := Stay{EntryDate: "yesterday", ExitDate: "2024-01-01"}.Duration()
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestValidateNewStay(t *testing.T) {
	tests := []struct {
		name             string
		country, in, out string
		wantErr          error
		wantKind         ErrorKind
	}{
		{"missing country", "", "2024-01-01", "2024-01-02", ErrMissingField, MissingField},
		{"missing entry", "FR", "", "2024-01-02", ErrMissingField, MissingField},
		{"missing exit", "FR", "2024-01-01", "  ", ErrMissingField, MissingField},
		{"bad entry", "FR", "01/01/2024", "2024-01-02", ErrInvalidDate, InvalidDate},
		{"exit before entry", "FR", "2024-01-02", "2024-01-01", ErrInvalidRange, InvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateNewStay(tt.country, tt.in, tt.out)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantKind, verr.Kind)
		})
	}
}

func TestValidateNewStayKeepsInputVerbatim(t *testing.T) {
	stay, err := ValidateNewStay("FR", "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	assert.NotEmpty(t, stay.ID)
	assert.Equal(t, "FR", stay.CountryCode)
	assert.Equal(t, "2024-01-01", stay.EntryDate)
	assert.Equal(t, "2024-01-10", stay.ExitDate)

	same, err := ValidateNewStay("FR", "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	assert.NotEqual(t, stay.ID, same.ID)
}

func TestFindApplicableRule(t *testing.T) {
	cache := RuleCache{
		"US": {Rules: []Rule{
			rule("DE", "Schengen", false),
			rule("FR", "90 days visa-free", false),
			rule("FR", "Duplicate", true),
			rule("CN", "Tourist visa", true),
		}},
	}
	stay := Stay{CountryCode: "FR"}

	t.Run("no rule set for citizenship", func(t *testing.T) {
		_, ok := FindApplicableRule(stay, "GB", cache)
		assert.False(t, ok)
		_, ok = FindApplicableRule(stay, "US", nil)
		assert.False(t, ok)
	})

	t.Run("first match wins", func(t *testing.T) {
		r, ok := FindApplicableRule(stay, "US", cache)
		require.True(t, ok)
		assert.Equal(t, "FR", r.Applicability.DestinationCountryCode)
		assert.Equal(t, "90 days visa-free", r.EntryRule.VisaType)
	})

	t.Run("no rule for destination", func(t *testing.T) {
		_, ok := FindApplicableRule(Stay{CountryCode: "JP"}, "US", cache)
		assert.False(t, ok)
	})
}

func TestRulesNeeded(t *testing.T) {
	cache := RuleCache{"US": {}, "CA": {}}

	assert.Equal(t, []string{"FR", "DE"}, RulesNeeded([]string{"US", "FR", "DE", "FR"}, cache))
	assert.Empty(t, RulesNeeded([]string{"US"}, cache))
	assert.Empty(t, RulesNeeded(nil, cache))

	// Citizenships dropped from the profile stay cached.
	assert.Empty(t, RulesNeeded([]string{"CA"}, cache))
	assert.Len(t, cache, 2)
}

func TestRulesNeededIsIdempotent(t *testing.T) {
	cache := RuleCache{}
	citizenships := []string{"US"}

	needed := RulesNeeded(citizenships, cache)
	assert.Equal(t, []string{"US"}, needed)

	for _, code := range needed {
		cache[code] = PassportRuleSet{Document: PassportDocument{Code: code}}
	}
	assert.Empty(t, RulesNeeded(citizenships, cache))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Status{Kind: Unknown}, Classify(Rule{}, false))
	assert.Equal(t, Status{Kind: VisaFree, Label: "Visa Waiver"}, Classify(rule("FR", "Visa Waiver", false), true))
	assert.Equal(t, Status{Kind: VisaRequired, Label: "e-Visa"}, Classify(rule("IN", "e-Visa", true), true))

	// An unknown rule must not read as visa-free or visa-required.
	assert.Equal(t, "Rule Unknown", Classify(Rule{}, false).String())
	assert.Equal(t, "visa-required", Classify(rule("IN", "", true), true).String())
	assert.Equal(t, "visa-free (Visa on arrival)", Classify(rule("TH", "Visa on arrival", false), true).String())
	assert.Equal(t, "visa-required (Visa on arrival)", Classify(rule("TH", "Visa on arrival", true), true).String())
	assert.Equal(t, "visa-free (Rule Unknown)", Classify(rule("TH", "Rule Unknown", false), true).String())
}

func TestStayScenario(t *testing.T) {
	stay, err := ValidateNewStay("FR", "2024-01-01", "2024-01-10")
	require.NoError(t, err)

	days, err := stay.Duration()
	require.NoError(t, err)
	assert.Equal(t, 10, days)

	cache := RuleCache{"US": {Rules: []Rule{rule("FR", "90 days visa-free", false)}}}
	assert.Equal(t, Status{Kind: VisaFree, Label: "90 days visa-free"}, StatusFor(stay, "US", cache))
	assert.Equal(t, Status{Kind: Unknown}, StatusFor(stay, "DE", cache))
}

func TestUniqueCodes(t *testing.T) {
	assert.Equal(t, []string{"US", "FR"}, UniqueCodes([]string{" us", "FR", "", "US", "fr"}))
}

func TestSortStaysNewestFirst(t *testing.T) {
	stays := []Stay{
		{ID: "a", EntryDate: "2023-05-01"},
		{ID: "b", EntryDate: "bogus"},
		{ID: "c", EntryDate: "2024-01-01"},
		{ID: "d", EntryDate: "2023-12-31"},
	}
	SortStaysNewestFirst(stays)

	var ids []string
	for _, s := range stays {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"c", "d", "a", "b"}, ids)
}

func TestStatusKindText(t *testing.T) {
	for _, k := range []StatusKind{Unknown, VisaFree, VisaRequired} {
		text, err := k.MarshalText()
		require.NoError(t, err)

		var got StatusKind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}

	var k StatusKind
	assert.Error(t, k.UnmarshalText([]byte("maybe")))
}

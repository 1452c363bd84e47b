package refdata

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/visavoyage/visavoyage/pkg/travel"
)

var errInvalidJSON = errors.New("invalid JSON document")

// ParseCountries reads the countries catalog. Entries without a code are
// skipped.
func ParseCountries(body []byte) ([]travel.Country, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidJSON
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, errors.New("countries catalog is not a JSON array")
	}

	countries := []travel.Country{}
	doc.ForEach(func(_, c gjson.Result) bool {
		code := c.Get("code").String()
		if code == "" {
			return true
		}
		countries = append(countries, travel.Country{
			Code: code,
			Name: c.Get("country").String(),
			Flag: c.Get("flag").String(),
		})
		return true
	})
	return countries, nil
}

// ParseRuleSet reads a published rule file. Rule order is kept as published.
func ParseRuleSet(body []byte) (travel.PassportRuleSet, error) {
	var set travel.PassportRuleSet
	if !gjson.ValidBytes(body) {
		return set, errInvalidJSON
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return set, errors.New("rule set is not a JSON object")
	}

	meta := doc.Get("document")
	set.Document = travel.PassportDocument{
		ID:      meta.Get("doc_id").String(),
		Country: meta.Get("country").String(),
		Code:    meta.Get("code").String(),
		DocType: meta.Get("doc_type").String(),
		Flag:    meta.Get("flag").String(),
	}

	rules := doc.Get("rules")
	if rules.Exists() && !rules.IsArray() {
		return set, errors.New("rules is not a JSON array")
	}
	for _, r := range rules.Array() {
		entry := r.Get("entryRule")
		set.Rules = append(set.Rules, travel.Rule{
			EntryRule: travel.EntryRule{
				ID:          entry.Get("entry_id").String(),
				Name:        entry.Get("rule_name").String(),
				VisaType:    entry.Get("visa_type").String(),
				MaxStayDays: int(entry.Get("max_days").Int()),
				PeriodType:  entry.Get("period_of_stay_type").String(),
			},
			Applicability: travel.RuleApplicability{
				DestinationCountryCode: r.Get("applicability.entry_country_code").String(),
			},
			Mapping: travel.RuleMapping{
				VisaRequired: r.Get("mapping.visa_required").Bool(),
			},
		})
	}
	return set, nil
}

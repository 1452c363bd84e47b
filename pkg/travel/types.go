package travel

// Country is an entry of the reference countries catalog.
type Country struct {
	Code string `json:"code"`
	Name string `json:"country"`
	Flag string `json:"flag"`
}

// UserProfile is the single profile of an installation.
// Citizenships holds country codes and is treated as a set.
type UserProfile struct {
	Name         string   `json:"name"`
	Citizenships []string `json:"citizenships"`
}

// Stay is one logged trip. Dates are calendar dates (YYYY-MM-DD) kept
// exactly as entered.
type Stay struct {
	ID          string `json:"id"`
	CountryCode string `json:"countryCode"`
	EntryDate   string `json:"entryDate"`
	ExitDate    string `json:"exitDate"`
}

// EntryRule describes one visa regime.
type EntryRule struct {
	ID          string `json:"entry_id"`
	Name        string `json:"rule_name"`
	VisaType    string `json:"visa_type"`
	MaxStayDays int    `json:"max_days"`
	PeriodType  string `json:"period_of_stay_type"`
}

type RuleApplicability struct {
	DestinationCountryCode string `json:"entry_country_code"`
}

type RuleMapping struct {
	VisaRequired bool `json:"visa_required"`
}

// Rule binds an entry regime to the destination it applies to.
type Rule struct {
	EntryRule     EntryRule         `json:"entryRule"`
	Applicability RuleApplicability `json:"applicability"`
	Mapping       RuleMapping       `json:"mapping"`
}

// PassportDocument is the metadata header of a published rule set.
type PassportDocument struct {
	ID      string `json:"doc_id"`
	Country string `json:"country"`
	Code    string `json:"code"`
	DocType string `json:"doc_type"`
	Flag    string `json:"flag"`
}

// PassportRuleSet holds every rule published for holders of one citizenship.
// Rule order is significant: see FindApplicableRule.
type PassportRuleSet struct {
	Document PassportDocument `json:"document"`
	Rules    []Rule           `json:"rules"`
}

// RuleCache maps a citizenship code to its fetched rule set. A missing key
// means the rule set has not been synced yet, not that no rules exist.
type RuleCache map[string]PassportRuleSet

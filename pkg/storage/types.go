package storage

import "time"

// Stats summarizes what the local store holds.
type Stats struct {
	HasProfile   bool          `json:"hasProfile"`
	Citizenships int           `json:"citizenships"`
	Stays        int           `json:"stays"`
	Countries    int           `json:"countries"`
	RuleSets     []RuleSetInfo `json:"ruleSets"`
}

// RuleSetInfo describes one cached rule set.
type RuleSetInfo struct {
	Citizenship string    `json:"citizenship"`
	RuleCount   int       `json:"ruleCount"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

package travel

import (
	"fmt"
	"sort"
)

// StatusKind is the three-way visa status of a stay for one citizenship.
type StatusKind int

const (
	Unknown StatusKind = iota
	VisaFree
	VisaRequired
)

func (k StatusKind) String() string {
	switch k {
	case VisaFree:
		return "visa-free"
	case VisaRequired:
		return "visa-required"
	default:
		return "unknown"
	}
}

func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *StatusKind) UnmarshalText(text []byte) error {
	for _, kind := range []StatusKind{Unknown, VisaFree, VisaRequired} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown visa status %q", text)
}

// Status is what gets rendered next to a stay. Label is the rule's visa type
// and is empty for Unknown. String always names the kind, so two rules with the
// same visa type but a different visa requirement never render alike.
type Status struct {
	Kind  StatusKind `json:"kind"`
	Label string     `json:"label,omitempty"`
}

func (s Status) String() string {
	if s.Kind == Unknown {
		return "Rule Unknown"
	}
	if s.Label == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + " (" + s.Label + ")"
}

// Classify turns the result of FindApplicableRule into a Status.
// A missing rule is Unknown, never VisaRequired.
func Classify(rule Rule, ok bool) Status {
	if !ok {
		return Status{Kind: Unknown}
	}
	if rule.Mapping.VisaRequired {
		return Status{Kind: VisaRequired, Label: rule.EntryRule.VisaType}
	}
	return Status{Kind: VisaFree, Label: rule.EntryRule.VisaType}
}

// StatusFor resolves and classifies the rule for a stay and citizenship.
func StatusFor(stay Stay, citizenship string, cache RuleCache) Status {
	return Classify(FindApplicableRule(stay, citizenship, cache))
}

// SortStaysNewestFirst orders stays by entry date, most recent first.
// Stays whose entry date does not parse sort last.
func SortStaysNewestFirst(stays []Stay) {
	key := func(s Stay) int64 {
		t, err := ParseDate(s.EntryDate)
		if err != nil {
			return -1 << 62
		}
		return t.Unix()
	}
	sort.SliceStable(stays, func(i, j int) bool {
		return key(stays[i]) > key(stays[j])
	})
}

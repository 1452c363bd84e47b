// Package refdata reads the reference data published as static JSON files:
// the countries catalog and one rule set per citizenship.
//
// Layout, relative to the source location:
//
//	countries.json
//	rules/<CODE>.json
package refdata

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/afero"

	"github.com/visavoyage/visavoyage/pkg/travel"
)

const (
	countriesFile = "countries.json"
	rulesDir      = "rules"
)

// ErrNotFound is returned by RuleSet when no rule file is published for a
// citizenship. Callers treat it as "no update", not as a failure.
var ErrNotFound = errors.New("rule set not found")

// ErrCatalogNotFound is returned by Countries when no countries catalog is
// published at the source location.
var ErrCatalogNotFound = errors.New("countries catalog not found")

// errMissing is what a source reports for an absent file before the caller
// names it.
var errMissing = errors.New("file not found")

// Source is a read-only provider of reference data.
type Source interface {
	Countries(ctx context.Context) ([]travel.Country, error)
	RuleSet(ctx context.Context, code string) (travel.PassportRuleSet, error)
}

// New returns an HTTPSource for http(s) locations and an FSSource over the
// local filesystem for anything else. A file:// prefix is accepted.
func New(location string, client *retryablehttp.Client) (Source, error) {
	switch {
	case location == "":
		return nil, errors.New("no reference data location configured")
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPSource(location, client)
	default:
		return NewFSSource(afero.NewOsFs(), strings.TrimPrefix(location, "file://")), nil
	}
}

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,16}$`)

func ruleFile(code string) (string, error) {
	if !codePattern.MatchString(code) {
		return "", fmt.Errorf("invalid country code %q", code)
	}
	return code + ".json", nil
}

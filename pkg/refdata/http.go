package refdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/visavoyage/visavoyage/pkg/travel"
	"github.com/visavoyage/visavoyage/pkg/whttp"
)

// HTTPSource fetches reference files from a static web location.
type HTTPSource struct {
	base   string
	client *retryablehttp.Client
}

func NewHTTPSource(base string, client *retryablehttp.Client) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid reference data URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid reference data URL: %q has no host", base)
	}
	return &HTTPSource{base: u.String(), client: client}, nil
}

func (s *HTTPSource) Countries(ctx context.Context) ([]travel.Country, error) {
	body, err := s.get(ctx, countriesFile)
	if errors.Is(err, errMissing) {
		return nil, ErrCatalogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching countries: %w", err)
	}
	countries, err := ParseCountries(body)
	if err != nil {
		return nil, fmt.Errorf("parsing countries: %w", err)
	}
	return countries, nil
}

func (s *HTTPSource) RuleSet(ctx context.Context, code string) (travel.PassportRuleSet, error) {
	name, err := ruleFile(code)
	if err != nil {
		return travel.PassportRuleSet{}, err
	}
	body, err := s.get(ctx, rulesDir, name)
	if errors.Is(err, errMissing) {
		return travel.PassportRuleSet{}, ErrNotFound
	}
	if err != nil {
		return travel.PassportRuleSet{}, fmt.Errorf("fetching rules for %s: %w", code, err)
	}
	set, err := ParseRuleSet(body)
	if err != nil {
		return travel.PassportRuleSet{}, fmt.Errorf("parsing rules for %s: %w", code, err)
	}
	return set, nil
}

func (s *HTTPSource) get(ctx context.Context, elem ...string) ([]byte, error) {
	target, err := url.JoinPath(s.base, elem...)
	if err != nil {
		return nil, err
	}
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{Method: http.MethodGet, URL: target}, s.client)
	if err != nil {
		return nil, err
	}
	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, errMissing
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, fmt.Errorf("unexpected status %d from %s", res.StatusCode, target)
	}
	return res.Body, nil
}

package refdata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/visavoyage/visavoyage/pkg/travel"
)

// FSSource reads reference files from a directory.
type FSSource struct {
	fs   afero.Fs
	root string
}

func NewFSSource(fsys afero.Fs, root string) *FSSource {
	return &FSSource{fs: fsys, root: root}
}

func (s *FSSource) Countries(ctx context.Context) ([]travel.Country, error) {
	body, err := afero.ReadFile(s.fs, filepath.Join(s.root, countriesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCatalogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading countries: %w", err)
	}
	countries, err := ParseCountries(body)
	if err != nil {
		return nil, fmt.Errorf("parsing countries: %w", err)
	}
	return countries, nil
}

func (s *FSSource) RuleSet(ctx context.Context, code string) (travel.PassportRuleSet, error) {
	name, err := ruleFile(code)
	if err != nil {
		return travel.PassportRuleSet{}, err
	}
	body, err := afero.ReadFile(s.fs, filepath.Join(s.root, rulesDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return travel.PassportRuleSet{}, ErrNotFound
	}
	if err != nil {
		return travel.PassportRuleSet{}, fmt.Errorf("reading rules for %s: %w", code, err)
	}
	set, err := ParseRuleSet(body)
	if err != nil {
		return travel.PassportRuleSet{}, fmt.Errorf("parsing rules for %s: %w", code, err)
	}
	return set, nil
}

package refdata

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/visavoyage/visavoyage/pkg/travel"
)

// SortCountries orders a catalog by display name, accents and case folded
// the way a reader expects ("Åland Islands" next to "Albania").
func SortCountries(countries []travel.Country) {
	c := collate.New(language.English, collate.Loose)
	sort.SliceStable(countries, func(i, j int) bool {
		return c.CompareString(countries[i].Name, countries[j].Name) < 0
	})
}

// Lookup indexes a catalog by country code.
func Lookup(countries []travel.Country) map[string]travel.Country {
	m := make(map[string]travel.Country, len(countries))
	for _, c := range countries {
		m[c.Code] = c
	}
	return m
}

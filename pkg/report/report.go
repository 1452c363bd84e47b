// Package report renders logged stays with their duration and visa status
// for every citizenship of the profile.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/visavoyage/visavoyage/pkg/travel"
)

// Badge is the visa status of a stay for one citizenship.
type Badge struct {
	Citizenship string        `json:"citizenship"`
	Flag        string        `json:"flag,omitempty"`
	Status      travel.Status `json:"status"`
}

func (b Badge) String() string {
	return b.Citizenship + ": " + b.Status.String()
}

// Row is one rendered stay.
type Row struct {
	Stay    travel.Stay    `json:"stay"`
	Country travel.Country `json:"country"`
	Days    int            `json:"days"`
	Badges  []Badge        `json:"badges"`
}

// BuildRows resolves every stay against the rule cache, newest stay first.
// Countries missing from the catalog are shown by code. Stays whose dates do
// not parse get zero days.
func BuildRows(stays []travel.Stay, countries map[string]travel.Country, profile travel.UserProfile, cache travel.RuleCache) []Row {
	sorted := append([]travel.Stay(nil), stays...)
	travel.SortStaysNewestFirst(sorted)

	rows := make([]Row, 0, len(sorted))
	for _, s := range sorted {
		country, ok := countries[s.CountryCode]
		if !ok {
			country = travel.Country{Code: s.CountryCode, Name: s.CountryCode}
		}
		days, _ := s.Duration()

		row := Row{Stay: s, Country: country, Days: days, Badges: []Badge{}}
		for _, code := range profile.Citizenships {
			row.Badges = append(row.Badges, Badge{
				Citizenship: code,
				Flag:        countries[code].Flag,
				Status:      travel.StatusFor(s, code, cache),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// ValidateOutputFlags checks a -o value before anything is printed.
func ValidateOutputFlags(outputFlags string) error {
	if outputFlags == "" {
		return fmt.Errorf("empty output flags")
	}
	for _, f := range outputFlags {
		if !strings.ContainsRune("icexds", f) {
			return fmt.Errorf("invalid output flag %q", f)
		}
	}
	return nil
}

// PrintRows writes one delimited line per row. Output flags: i (stay id),
// c (country code), e (entry date), x (exit date), d (days), s (statuses).
func PrintRows(w io.Writer, rows []Row, outputFlags, delimiter string) error {
	if err := ValidateOutputFlags(outputFlags); err != nil {
		return err
	}
	for _, r := range rows {
		line := createLine(r, outputFlags, delimiter)
		if len(line) > 0 {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func createLine(r Row, outputFlags, delimiter string) string {
	var line string
	for _, f := range outputFlags {
		switch f {
		case 'i':
			line += r.Stay.ID + delimiter
		case 'c':
			line += r.Stay.CountryCode + delimiter
		case 'e':
			line += r.Stay.EntryDate + delimiter
		case 'x':
			line += r.Stay.ExitDate + delimiter
		case 'd':
			line += strconv.Itoa(r.Days) + delimiter
		case 's':
			line += joinBadges(r.Badges) + delimiter
		}
	}
	return strings.TrimSuffix(line, delimiter)
}

func joinBadges(badges []Badge) string {
	parts := make([]string, 0, len(badges))
	for _, b := range badges {
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}

// PrintTable writes rows as an aligned table.
func PrintTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOUNTRY\tENTRY\tEXIT\tDAYS\tVISA STATUS")
	for _, r := range rows {
		country := strings.TrimSpace(r.Country.Flag + " " + r.Country.Name)
		status := joinBadges(r.Badges)
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", r.Stay.ID, country, r.Stay.EntryDate, r.Stay.ExitDate, r.Days, status)
	}
	return tw.Flush()
}

package storage

import (
	"context"
	"time"
)

func (d *DB) GetStats(ctx context.Context) (Stats, error) {
	var s Stats

	profile, ok, err := d.GetUserProfile(ctx)
	if err != nil {
		return s, err
	}
	s.HasProfile = ok
	s.Citizenships = len(profile.Citizenships)

	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*), COUNT(DISTINCT country_code) FROM stays").Scan(&s.Stays, &s.Countries); err != nil {
		return s, err
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT citizenship, rule_count, fetched_at FROM rule_sets ORDER BY citizenship")
	if err != nil {
		return s, err
	}
	defer rows.Close()

	for rows.Next() {
		var info RuleSetInfo
		var fetchedAt string
		if err := rows.Scan(&info.Citizenship, &info.RuleCount, &fetchedAt); err != nil {
			return s, err
		}
		if t, perr := time.Parse(time.RFC3339, fetchedAt); perr == nil {
			info.FetchedAt = t
		}
		s.RuleSets = append(s.RuleSets, info)
	}
	return s, rows.Err()
}

package rulesync

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/visavoyage/visavoyage/pkg/refdata"
	"github.com/visavoyage/visavoyage/pkg/storage"
	"github.com/visavoyage/visavoyage/pkg/travel"
)

type fakeSource struct {
	mu    sync.Mutex
	sets  map[string]travel.PassportRuleSet
	fail  map[string]error
	calls []string
}

func (f *fakeSource) Countries(context.Context) ([]travel.Country, error) { return nil, nil }

func (f *fakeSource) RuleSet(_ context.Context, code string) (travel.PassportRuleSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, code)
	if err, ok := f.fail[code]; ok {
		return travel.PassportRuleSet{}, err
	}
	set, ok := f.sets[code]
	if !ok {
		return travel.PassportRuleSet{}, refdata.ErrNotFound
	}
	return set, nil
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "visavoyage.sqlite"), storage.DefaultDBTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func frRuleSet(code string) travel.PassportRuleSet {
	return travel.PassportRuleSet{
		Document: travel.PassportDocument{Code: code},
		Rules: []travel.Rule{{
			EntryRule:     travel.EntryRule{ID: "fr", VisaType: "90 days visa-free", MaxStayDays: 90},
			Applicability: travel.RuleApplicability{DestinationCountryCode: "FR"},
		}},
	}
}

func TestSyncFetchesGapThenNothing(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	src := &fakeSource{sets: map[string]travel.PassportRuleSet{"US": frRuleSet("US")}}
	cfg := Config{Source: src, Store: db}

	res, err := Sync(ctx, cfg, []string{"US"})
	require.NoError(t, err)
	assert.Equal(t, []string{"US"}, res.Needed)
	assert.Equal(t, []string{"US"}, res.Fetched)
	assert.True(t, res.Complete())

	cache, err := db.GetRuleCache(ctx)
	require.NoError(t, err)
	assert.Empty(t, travel.RulesNeeded([]string{"US"}, cache))

	stay := travel.Stay{CountryCode: "FR", EntryDate: "2024-01-01", ExitDate: "2024-01-10"}
	assert.Equal(t, travel.Status{Kind: travel.VisaFree, Label: "90 days visa-free"}, travel.StatusFor(stay, "US", cache))

	res, err = Sync(ctx, cfg, []string{"US"})
	require.NoError(t, err)
	assert.Empty(t, res.Needed)
	assert.Equal(t, []string{"US"}, src.calls)
}

func TestSyncPartialFailure(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, db.PutRuleSet(ctx, "CA", frRuleSet("CA")))

	boom := errors.New("connection reset")
	src := &fakeSource{
		sets: map[string]travel.PassportRuleSet{"US": frRuleSet("US"), "IE": frRuleSet("IE")},
		fail: map[string]error{"DE": boom},
	}

	var mu sync.Mutex
	done := map[string]error{}
	cfg := Config{Source: src, Store: db, Concurrency: 4, OnDone: func(code string, err error) {
		mu.Lock()
		done[code] = err
		mu.Unlock()
	}}

	res, err := Sync(ctx, cfg, []string{"US", "DE", "CA", "XX", "IE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "DE", "XX", "IE"}, res.Needed)
	assert.Equal(t, []string{"US", "IE"}, res.Fetched)
	assert.Equal(t, []string{"XX"}, res.NotFound)
	assert.Equal(t, []string{"DE"}, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], boom)
	assert.False(t, res.Complete())
	assert.Len(t, done, 4)

	cache, err := db.GetRuleCache(ctx)
	require.NoError(t, err)
	assert.Len(t, cache, 3)
	assert.Contains(t, cache, "CA")
	assert.Contains(t, cache, "US")
	assert.Contains(t, cache, "IE")

	// The gap heals on the next sync once the source recovers.
	delete(src.fail, "DE")
	src.sets["DE"] = frRuleSet("DE")
	res, err = Sync(ctx, cfg, []string{"US", "DE", "CA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"DE"}, res.Fetched)
	assert.True(t, res.Complete())
}

type brokenStore struct{}

func (brokenStore) GetRuleCache(context.Context) (travel.RuleCache, error) {
	return nil, errors.New("disk on fire")
}

func (brokenStore) PutRuleSet(context.Context, string, travel.PassportRuleSet) error { return nil }

func TestSyncFailsWhenCacheUnreadable(t *testing.T) {
	_, err := Sync(context.Background(), Config{Source: &fakeSource{}, Store: brokenStore{}}, []string{"US"})
	assert.Error(t, err)
}

func TestSyncLimiterDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db := openDB(t)
	src := &fakeSource{sets: map[string]travel.PassportRuleSet{"US": frRuleSet("US"), "DE": frRuleSet("DE")}}

	// One token up front, the next one an hour away: the second fetch
	// cannot start before the deadline.
	res, err := Sync(ctx, Config{
		Source:      src,
		Store:       db,
		Concurrency: 1,
		Limiter:     rate.NewLimiter(rate.Every(time.Hour), 1),
	}, []string{"US", "DE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"US"}, res.Fetched)
	assert.Equal(t, []string{"DE"}, res.Failed)
	assert.False(t, res.Complete())
	assert.Equal(t, []string{"US"}, src.calls)

	cache, err := db.GetRuleCache(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cache, "US")
	assert.NotContains(t, cache, "DE")
}

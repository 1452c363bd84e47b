// Package rulesync keeps the local rule cache complete for a profile: it
// fetches the rule set of every citizenship missing from the cache and
// stores each one under its own key as soon as it arrives.
package rulesync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/visavoyage/visavoyage/pkg/refdata"
	"github.com/visavoyage/visavoyage/pkg/travel"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Store is the part of the local record store a sync needs.
type Store interface {
	GetRuleCache(ctx context.Context) (travel.RuleCache, error)
	PutRuleSet(ctx context.Context, citizenship string, set travel.PassportRuleSet) error
}

// Config holds everything Sync needs.
type Config struct {
	Source      refdata.Source
	Store       Store
	Concurrency int    // defaults to 3 if <= 0
	Log         Logger // optional; nil = no logging

	// Limiter paces fetches across all workers. Nil = no pacing.
	Limiter *rate.Limiter

	// OnDone is called once per needed citizenship from worker goroutines,
	// with the fetch or store error if any. Nil = no callback.
	OnDone func(citizenship string, err error)
}

// Result holds the outcome of a sync. Every slice follows the order of Needed.
type Result struct {
	Needed   []string
	Fetched  []string
	NotFound []string
	Failed   []string
	Errors   []error // non-fatal, one per entry of Failed
}

// Complete reports whether every needed rule set is now cached.
func (r *Result) Complete() bool {
	return len(r.Fetched) == len(r.Needed)
}

// Sync fetches the rule sets the cache lacks for citizenships. A failed or
// missing rule set leaves its key absent so the next Sync asks for it again;
// rule sets stored before the failure, in this run or earlier, are kept.
// The returned error is only set when the cache itself cannot be read.
func Sync(ctx context.Context, cfg Config, citizenships []string) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	cache, err := cfg.Store.GetRuleCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rule cache: %w", err)
	}

	result := &Result{Needed: travel.RulesNeeded(citizenships, cache)}
	if len(result.Needed) == 0 {
		log.Debugf("Rule cache already covers %v", citizenships)
		return result, nil
	}
	log.Infof("Syncing rules for %v", result.Needed)

	outcomes := fetchConcurrently(ctx, cfg, result.Needed, concurrency, log)
	for _, code := range result.Needed {
		err := outcomes[code]
		switch {
		case err == nil:
			result.Fetched = append(result.Fetched, code)
		case errors.Is(err, refdata.ErrNotFound):
			result.NotFound = append(result.NotFound, code)
		default:
			result.Failed = append(result.Failed, code)
			result.Errors = append(result.Errors, err)
		}
	}
	return result, nil
}

// fetchConcurrently fetches and stores rule sets using a worker pool. Each
// worker writes a distinct key, so stores need no ordering between them.
func fetchConcurrently(ctx context.Context, cfg Config, codes []string, concurrency int, log Logger) map[string]error {
	codeChan := make(chan string, len(codes))

	var mu sync.Mutex
	outcomes := make(map[string]error, len(codes))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(codes); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range codeChan {
				err := syncOne(ctx, cfg, code, log)

				mu.Lock()
				outcomes[code] = err
				mu.Unlock()

				if cfg.OnDone != nil {
					cfg.OnDone(code, err)
				}
			}
		}()
	}

	for _, code := range codes {
		codeChan <- code
	}
	close(codeChan)
	wg.Wait()

	return outcomes
}

func syncOne(ctx context.Context, cfg Config, code string, log Logger) error {
	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			log.Errorf("Skipping rules for %s: %v", code, err)
			return err
		}
	}

	set, err := cfg.Source.RuleSet(ctx, code)
	if errors.Is(err, refdata.ErrNotFound) {
		log.Warnf("No rule file found for %s", code)
		return err
	}
	if err != nil {
		log.Errorf("Error fetching rules for %s: %v", code, err)
		return err
	}

	if err := cfg.Store.PutRuleSet(ctx, code, set); err != nil {
		log.Errorf("Error storing rules for %s: %v", code, err)
		return err
	}
	log.Infof("Successfully fetched and stored rules for %s (%d rules)", code, len(set.Rules))
	return nil
}

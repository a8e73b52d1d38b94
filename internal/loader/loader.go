package loader

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tbessias/modkit/internal/fetcher"
	"github.com/tbessias/modkit/internal/locator"
	"github.com/tbessias/modkit/internal/modcache"
	"github.com/tbessias/modkit/internal/progress"
	"github.com/tbessias/modkit/internal/runner"
)

// Status tracks a module through one load cycle.
type Status int

const (
	StatusPending Status = iota
	StatusLoaded
	StatusFailed
)

// ModuleSpec names a module in a group and whether its failure aborts
// startup.
type ModuleSpec struct {
	Name     string
	Critical bool
}

// Group is a tier of modules that may load concurrently. Groups load in
// sequence: a group's modules may rely on everything in earlier groups
// having fully executed.
type Group struct {
	Name    string
	Modules []ModuleSpec
}

// ModuleRecord is the per-module outcome of one load cycle. Records live
// only for the duration of a LoadAll call.
type ModuleRecord struct {
	Name       string
	GroupIndex int
	SourceURL  string
	Status     Status
	Critical   bool
	Err        error
}

// Outcome classifies a completed load cycle.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePartialFailure
	OutcomeCriticalFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartialFailure:
		return "partial failure"
	case OutcomeCriticalFailure:
		return "critical failure"
	default:
		return "unknown"
	}
}

// Report is the result of one load cycle.
type Report struct {
	Outcome        Outcome
	Records        []ModuleRecord
	Failed         []string
	CriticalFailed []string
}

// CriticalError reports that at least one critical module failed to load.
type CriticalError struct {
	Modules []string
}

func (e *CriticalError) Error() string {
	return fmt.Sprintf("critical modules failed to load: %s", strings.Join(e.Modules, ", "))
}

// Loader fetches and executes the platform's module groups.
type Loader struct {
	loc      *locator.Resolver
	fetch    *fetcher.Client
	cache    *modcache.Cache
	run      *runner.Runner
	reporter progress.Reporter

	mu     sync.Mutex
	loaded map[string]bool // primary source URL -> already executed
}

// New creates a Loader.
func New(loc *locator.Resolver, fetch *fetcher.Client, cache *modcache.Cache, run *runner.Runner, reporter progress.Reporter) *Loader {
	if reporter == nil {
		reporter = progress.Discard{}
	}
	return &Loader{
		loc:      loc,
		fetch:    fetch,
		cache:    cache,
		run:      run,
		reporter: reporter,
		loaded:   make(map[string]bool),
	}
}

// LoadAll runs one load cycle over the given groups. Modules within a
// group are fetched concurrently and executed as each fetch settles;
// group N+1 never starts before every module in group N has settled.
// A module failure is recorded, never fatal to the cycle itself. The
// classification in the report is the caller's signal.
func (l *Loader) LoadAll(ctx context.Context, groups []Group) *Report {
	total := 0
	for _, g := range groups {
		total += len(g.Modules)
	}

	report := &Report{}
	l.reporter.Start(total)
	defer l.reporter.Finish()

	var done int64
	for gi, group := range groups {
		records := make([]ModuleRecord, len(group.Modules))

		var wg sync.WaitGroup
		for mi, spec := range group.Modules {
			wg.Add(1)
			go func(mi int, spec ModuleSpec) {
				defer wg.Done()
				records[mi] = l.loadOne(ctx, gi, spec)
				count := atomic.AddInt64(&done, 1)
				l.reporter.Update(int(count), spec.Name)
			}(mi, spec)
		}
		// Sequential barrier between groups.
		wg.Wait()

		report.Records = append(report.Records, records...)
	}

	for _, rec := range report.Records {
		if rec.Status != StatusFailed {
			continue
		}
		report.Failed = append(report.Failed, rec.Name)
		if rec.Critical {
			report.CriticalFailed = append(report.CriticalFailed, rec.Name)
		}
	}

	switch {
	case len(report.CriticalFailed) > 0:
		report.Outcome = OutcomeCriticalFailure
	case len(report.Failed) > 0:
		report.Outcome = OutcomePartialFailure
	default:
		report.Outcome = OutcomeSuccess
	}

	return report
}

// Err returns the critical failure for a report, or nil.
func (r *Report) Err() error {
	if r.Outcome == OutcomeCriticalFailure {
		return &CriticalError{Modules: r.CriticalFailed}
	}
	return nil
}

func (l *Loader) loadOne(ctx context.Context, groupIndex int, spec ModuleSpec) ModuleRecord {
	rec := ModuleRecord{
		Name:       spec.Name,
		GroupIndex: groupIndex,
		Critical:   spec.Critical,
		Status:     StatusPending,
	}

	loc := l.loc.Resolve(locator.KindModule, spec.Name)
	rec.SourceURL = loc.Primary

	// A module already executed in this process is never re-fetched or
	// re-run; injection of modules is idempotent per source.
	l.mu.Lock()
	already := l.loaded[loc.Primary]
	l.mu.Unlock()
	if already {
		rec.Status = StatusLoaded
		return rec
	}

	src, fromURL, err := l.obtain(ctx, loc)
	if err != nil {
		log.Printf("loader: module %s failed: %v", spec.Name, err)
		rec.Status = StatusFailed
		rec.Err = err
		return rec
	}
	rec.SourceURL = fromURL

	// Execute immediately on settle rather than at the end of the group,
	// so siblings that finish later can already see this module's
	// registrations. Best-effort ordering within a group, by contract.
	if err := l.run.RunModule(spec.Name, src); err != nil {
		log.Printf("loader: module %s failed: %v", spec.Name, err)
		rec.Status = StatusFailed
		rec.Err = err
		return rec
	}

	l.mu.Lock()
	l.loaded[loc.Primary] = true
	l.mu.Unlock()

	rec.Status = StatusLoaded
	return rec
}

// obtain returns module source from cache if valid, else fetches the
// primary and then the fallback. A successful fetch is cached under the
// URL it actually came from.
func (l *Loader) obtain(ctx context.Context, loc locator.Location) (src, fromURL string, err error) {
	if content, ok := l.cache.Get(ctx, loc.Primary); ok {
		return content, loc.Primary, nil
	}

	content, err := l.fetch.FetchText(ctx, loc.Primary)
	if err == nil {
		if cerr := l.cache.Put(ctx, loc.Primary, content); cerr != nil {
			log.Printf("loader: caching %s: %v", loc.Primary, cerr)
		}
		return content, loc.Primary, nil
	}

	if loc.Fallback == "" {
		return "", "", err
	}

	content, ferr := l.fetch.FetchText(ctx, loc.Fallback)
	if ferr != nil {
		return "", "", fmt.Errorf("primary %s failed (%v); fallback: %w", loc.Primary, err, ferr)
	}
	if cerr := l.cache.Put(ctx, loc.Fallback, content); cerr != nil {
		log.Printf("loader: caching %s: %v", loc.Fallback, cerr)
	}
	return content, loc.Fallback, nil
}

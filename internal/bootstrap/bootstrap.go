package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tbessias/modkit/internal/config"
	"github.com/tbessias/modkit/internal/engine"
	"github.com/tbessias/modkit/internal/fetcher"
	"github.com/tbessias/modkit/internal/loader"
	"github.com/tbessias/modkit/internal/locator"
	"github.com/tbessias/modkit/internal/registry"
	"github.com/tbessias/modkit/internal/runner"
)

// ErrStartupTimeout reports that the whole startup chain overran its
// ceiling. Distinct from module failures: the chain may have been
// healthy, just slow.
var ErrStartupTimeout = errors.New("startup timed out")

// bundleName is the module-system bundle executed before any group
// loads. It sets up the interpreter-side plumbing the groups rely on.
const bundleName = "runtime"

const (
	bundleRetries    = 3
	bundleRetryDelay = 500 * time.Millisecond
)

// Bootstrap drives the startup chain: runtime bundle, module groups,
// namespace validation, first injection pass.
type Bootstrap struct {
	cfg    *config.Config
	loc    *locator.Resolver
	fetch  *fetcher.Client
	run    *runner.Runner
	loader *loader.Loader
	reg    *registry.Registry
	engine *engine.Engine
	groups []loader.Group
}

// New creates a Bootstrap using the default group plan.
func New(cfg *config.Config, loc *locator.Resolver, fetch *fetcher.Client, run *runner.Runner, ldr *loader.Loader, reg *registry.Registry, eng *engine.Engine) *Bootstrap {
	return &Bootstrap{
		cfg:    cfg,
		loc:    loc,
		fetch:  fetch,
		run:    run,
		loader: ldr,
		reg:    reg,
		engine: eng,
		groups: loader.DefaultGroups(),
	}
}

// Run executes the startup chain under the configured ceiling. Exceeding
// the ceiling returns ErrStartupTimeout; a failed critical module
// returns the loader's *CriticalError; optional failures only log.
func (b *Bootstrap) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.BootTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.chain(ctx) }()

	select {
	case err := <-done:
		// The chain may surface the ceiling as a context error itself.
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrStartupTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrStartupTimeout
		}
		return ctx.Err()
	}
}

func (b *Bootstrap) chain(ctx context.Context) error {
	if err := b.loadBundle(ctx); err != nil {
		return fmt.Errorf("loading %s bundle: %w", bundleName, err)
	}

	report := b.loader.LoadAll(ctx, b.groups)
	if err := report.Err(); err != nil {
		return err
	}
	if report.Outcome == loader.OutcomePartialFailure {
		log.Printf("bootstrap: optional modules failed: %v", report.Failed)
	}

	if missing := b.reg.Validate(loader.ExpectedMembers()); missing != nil {
		log.Printf("bootstrap: modules loaded but never registered: %v", missing)
	}

	if err := b.engine.Init(ctx); err != nil {
		return fmt.Errorf("initial injection: %w", err)
	}
	return nil
}

// loadBundle fetches and executes the runtime bundle, retrying the
// primary before touching the fallback. The bundle is the one module
// nothing can substitute for, so it gets retries the groups do not.
func (b *Bootstrap) loadBundle(ctx context.Context) error {
	loc := b.loc.Resolve(locator.KindModule, bundleName)

	var lastErr error
	for attempt := 1; attempt <= bundleRetries; attempt++ {
		src, err := b.fetch.FetchText(ctx, loc.Primary)
		if err == nil {
			return b.run.RunModule(bundleName, src)
		}
		lastErr = err
		log.Printf("bootstrap: bundle fetch attempt %d/%d: %v", attempt, bundleRetries, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bundleRetryDelay):
		}
	}

	if loc.Fallback != "" {
		src, err := b.fetch.FetchText(ctx, loc.Fallback)
		if err == nil {
			return b.run.RunModule(bundleName, src)
		}
		return fmt.Errorf("primary failed (%v); fallback: %w", lastErr, err)
	}
	return lastErr
}

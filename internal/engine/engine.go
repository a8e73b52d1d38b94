package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/tbessias/modkit/internal/event"
	"github.com/tbessias/modkit/internal/installables"
	"github.com/tbessias/modkit/internal/page"
	"github.com/tbessias/modkit/internal/runner"
)

// Engine injects stored plugins and themes into the page document and
// executes plugin code. It is the only writer of the document, so a
// refresh can safely tear down and rebuild a whole kind.
type Engine struct {
	store *installables.Store
	doc   *page.Document
	run   *runner.Runner
	bus   *event.Bus
}

// New creates an Engine.
func New(store *installables.Store, doc *page.Document, run *runner.Runner, bus *event.Bus) *Engine {
	return &Engine{store: store, doc: doc, run: run, bus: bus}
}

// Init performs the first full injection pass. Called once at startup,
// after the module groups have loaded.
func (e *Engine) Init(ctx context.Context) error {
	return e.RefreshAll(ctx)
}

// InjectKind replaces every node of the given kind with fresh nodes for
// the enabled records. Injection is idempotent: running it twice with
// the same records yields the same document. Plugin code runs in
// isolation, so one broken plugin is logged and skipped while the rest
// keep going. Returns the names of the records injected.
func (e *Engine) InjectKind(ctx context.Context, kind installables.Kind, records []installables.Installable) []string {
	e.doc.RemoveKind(kind)

	var injected []string
	for _, rec := range records {
		if !rec.Enabled {
			continue
		}

		e.doc.Append(page.Node{
			ID:      page.NodeID(kind, rec.ID),
			Kind:    kind,
			Name:    rec.Name,
			Content: rec.Code,
		})
		injected = append(injected, rec.Name)

		// An enabled record with no code still gets a node, it just has
		// nothing to execute.
		if kind == installables.KindPlugin && rec.Code != "" {
			if err := e.run.RunPlugin(rec.Name, rec.Code); err != nil {
				log.Printf("engine: %v", err)
			}
		}
	}
	return injected
}

// RefreshKind reloads one kind from storage, re-injects it, and
// announces the refresh on the bus.
func (e *Engine) RefreshKind(ctx context.Context, kind installables.Kind) error {
	records, err := e.store.List(ctx, kind)
	if err != nil {
		return fmt.Errorf("refreshing %ss: %w", kind, err)
	}

	names := e.InjectKind(ctx, kind, records)
	e.bus.Publish(event.Event{Type: event.TypeRefreshed, Kind: kind, Names: names})
	return nil
}

// RefreshThemes re-injects all enabled themes.
func (e *Engine) RefreshThemes(ctx context.Context) error {
	return e.RefreshKind(ctx, installables.KindTheme)
}

// RefreshPlugins re-injects and re-runs all enabled plugins.
func (e *Engine) RefreshPlugins(ctx context.Context) error {
	return e.RefreshKind(ctx, installables.KindPlugin)
}

// RefreshAll refreshes themes first, then plugins, so plugin code sees
// the final styling state.
func (e *Engine) RefreshAll(ctx context.Context) error {
	if err := e.RefreshThemes(ctx); err != nil {
		return err
	}
	return e.RefreshPlugins(ctx)
}

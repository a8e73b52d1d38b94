package engine

import (
	"context"
	"testing"
	"time"

	"github.com/tbessias/modkit/internal/db"
	"github.com/tbessias/modkit/internal/event"
	"github.com/tbessias/modkit/internal/installables"
	"github.com/tbessias/modkit/internal/page"
	"github.com/tbessias/modkit/internal/registry"
	"github.com/tbessias/modkit/internal/runner"
)

type fixture struct {
	engine *Engine
	store  *installables.Store
	doc    *page.Document
	reg    *registry.Registry
	bus    *event.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := installables.NewStore(database)
	doc := page.NewDocument()
	reg := registry.New()
	bus := event.NewBus()
	e := New(store, doc, runner.New(reg, 5*time.Second), bus)

	return &fixture{engine: e, store: store, doc: doc, reg: reg, bus: bus}
}

func (f *fixture) save(t *testing.T, kind installables.Kind, name, code string, enabled bool) *installables.Installable {
	t.Helper()
	item := &installables.Installable{Kind: kind, Name: name, Code: code, Enabled: enabled}
	if err := f.store.Save(context.Background(), item); err != nil {
		t.Fatalf("saving %s: %v", name, err)
	}
	return item
}

func TestInjectKindOnlyEnabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.save(t, installables.KindTheme, "dark", "body { background: #111 }", true)
	f.save(t, installables.KindTheme, "light", "body { background: #fff }", false)

	if err := f.engine.RefreshThemes(ctx); err != nil {
		t.Fatalf("RefreshThemes: %v", err)
	}

	nodes := f.doc.NodesByKind(installables.KindTheme)
	if len(nodes) != 1 || nodes[0].Name != "dark" {
		t.Errorf("nodes = %+v, want only the enabled theme", nodes)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.save(t, installables.KindTheme, "dark", "body {}", true)
	f.save(t, installables.KindTheme, "mono", "* {}", true)

	if err := f.engine.RefreshThemes(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	first := f.doc.NodesByKind(installables.KindTheme)

	if err := f.engine.RefreshThemes(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	second := f.doc.NodesByKind(installables.KindTheme)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("node counts = %d then %d, want 2 and 2", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("node %d id changed across refreshes: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestBrokenPluginDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.save(t, installables.KindPlugin, "broken", `throw new Error("boom");`, true)
	f.save(t, installables.KindPlugin, "greeter", `modkit.register("greeting", "hi");`, true)

	if err := f.engine.RefreshPlugins(ctx); err != nil {
		t.Fatalf("RefreshPlugins: %v", err)
	}

	if _, ok := f.reg.Lookup("greeting"); !ok {
		t.Error("healthy plugin should run despite a broken sibling")
	}
	if nodes := f.doc.NodesByKind(installables.KindPlugin); len(nodes) != 2 {
		t.Errorf("nodes = %d, want both plugins injected", len(nodes))
	}
}

func TestEmptyCodeInjectsWithoutRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.save(t, installables.KindPlugin, "placeholder", "", true)

	if err := f.engine.RefreshPlugins(ctx); err != nil {
		t.Fatalf("RefreshPlugins: %v", err)
	}
	nodes := f.doc.NodesByKind(installables.KindPlugin)
	if len(nodes) != 1 || nodes[0].Content != "" {
		t.Errorf("nodes = %+v", nodes)
	}
}

func TestRefreshPublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.save(t, installables.KindTheme, "dark", "body {}", true)

	ch := f.bus.Subscribe()
	defer f.bus.Unsubscribe(ch)

	if err := f.engine.RefreshThemes(ctx); err != nil {
		t.Fatalf("RefreshThemes: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != event.TypeRefreshed || ev.Kind != installables.KindTheme {
			t.Errorf("event = %+v", ev)
		}
		if len(ev.Names) != 1 || ev.Names[0] != "dark" {
			t.Errorf("event names = %v", ev.Names)
		}
	case <-time.After(time.Second):
		t.Fatal("no refresh event published")
	}
}

func TestDisableThenRefreshRemovesNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := f.save(t, installables.KindTheme, "dark", "body {}", true)
	if err := f.engine.RefreshThemes(ctx); err != nil {
		t.Fatalf("RefreshThemes: %v", err)
	}
	if err := f.store.SetEnabled(ctx, item.ID, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if err := f.engine.RefreshThemes(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	if nodes := f.doc.NodesByKind(installables.KindTheme); len(nodes) != 0 {
		t.Errorf("nodes = %+v, want none after disabling", nodes)
	}
}

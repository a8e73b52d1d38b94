package locator

import (
	"path/filepath"
	"testing"

	"github.com/tbessias/modkit/internal/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.RemoteBaseURL = "https://example.com/repo/"
	cfg.LocalPaths = config.LocalPaths{
		Modules:     "/srv/modkit/modules",
		HTML:        "/srv/modkit/html",
		Stylesheets: "/srv/modkit/stylesheet",
		Store:       "/srv/modkit/store",
	}
	return cfg
}

func TestResolveProduction(t *testing.T) {
	cfg := testConfig()
	r := NewResolver(cfg)

	tests := []struct {
		kind Kind
		name string
		want string
	}{
		{KindModule, "configloader", "https://example.com/repo/modules/configloader.js"},
		{KindHTML, "popup", "https://example.com/repo/html/popup.html"},
		{KindStylesheet, "popup", "https://example.com/repo/stylesheet/popup.css"},
		{KindStoreManifest, "plugin", "https://example.com/repo/store/plugins/plugins.json"},
		{KindStoreItem, "plugins/hide-banner.js", "https://example.com/repo/store/plugins/hide-banner.js"},
	}

	for _, tt := range tests {
		loc := r.Resolve(tt.kind, tt.name)
		if loc.Primary != tt.want {
			t.Errorf("Resolve(%s, %s).Primary = %q, want %q", tt.kind, tt.name, loc.Primary, tt.want)
		}
		if loc.Fallback != "" {
			t.Errorf("Resolve(%s, %s).Fallback = %q, want empty in production", tt.kind, tt.name, loc.Fallback)
		}
	}
}

func TestResolveDebug(t *testing.T) {
	cfg := testConfig()
	cfg.DebugMode = true
	r := NewResolver(cfg)

	loc := r.Resolve(KindModule, "configloader")
	want := filepath.Join("/srv/modkit/modules", "configloader.js")
	if loc.Primary != want {
		t.Errorf("Primary = %q, want local path %q", loc.Primary, want)
	}
	if loc.Fallback != "https://example.com/repo/modules/configloader.js" {
		t.Errorf("Fallback = %q, want remote URL", loc.Fallback)
	}
}

func TestResolveDebugDisableFallback(t *testing.T) {
	cfg := testConfig()
	cfg.DebugMode = true
	cfg.DisableFallback = true
	r := NewResolver(cfg)

	loc := r.Resolve(KindModule, "configloader")
	if loc.Fallback != "" {
		t.Errorf("Fallback = %q, want empty when fallback is disabled", loc.Fallback)
	}
}

func TestResolveDebugWithoutLocalPath(t *testing.T) {
	cfg := testConfig()
	cfg.DebugMode = true
	cfg.LocalPaths.HTML = ""
	r := NewResolver(cfg)

	// No local equivalent configured: remote stays primary.
	loc := r.Resolve(KindHTML, "popup")
	if loc.Primary != "https://example.com/repo/html/popup.html" {
		t.Errorf("Primary = %q, want remote URL", loc.Primary)
	}
}

func TestContentBase(t *testing.T) {
	cfg := testConfig()
	r := NewResolver(cfg)
	if got := r.ContentBase(); got != "https://example.com/repo/store" {
		t.Errorf("ContentBase = %q", got)
	}

	cfg.DebugMode = true
	if got := r.ContentBase(); got != "/srv/modkit/store" {
		t.Errorf("ContentBase (debug) = %q", got)
	}
}

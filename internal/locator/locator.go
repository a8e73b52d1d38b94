package locator

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/tbessias/modkit/internal/config"
)

// Kind names a class of fetchable resource.
type Kind string

const (
	KindModule        Kind = "module"
	KindHTML          Kind = "html"
	KindStylesheet    Kind = "stylesheet"
	KindStoreManifest Kind = "store-manifest"
	KindStoreItem     Kind = "store-item"
)

// Location is a primary source plus an optional fallback to try when the
// primary fails. The fallback always points at the opposite side: a local
// primary falls back to the remote path and vice versa.
type Location struct {
	Primary  string
	Fallback string
}

// Resolver is the single home for debug/production source switching.
// Every fetching component asks it where a resource lives instead of
// branching on the debug flag itself. The configuration is held behind
// an atomic pointer: a settings update swaps in a new snapshot while
// in-flight requests keep reading the old one.
type Resolver struct {
	cfg atomic.Pointer[config.Config]
}

// NewResolver creates a Resolver for the given configuration.
func NewResolver(cfg *config.Config) *Resolver {
	r := &Resolver{}
	r.cfg.Store(cfg)
	return r
}

// Config returns the current configuration snapshot.
func (r *Resolver) Config() *config.Config {
	return r.cfg.Load()
}

// Update swaps in a new configuration snapshot. Last write wins.
func (r *Resolver) Update(cfg *config.Config) {
	r.cfg.Store(cfg)
}

// Resolve returns the source pair for a resource. In debug mode the local
// path is primary and the remote URL is the fallback; in production the
// remote URL is primary with no fallback (there is no local checkout to
// fall back to). DisableFallback empties the fallback in either mode.
func (r *Resolver) Resolve(kind Kind, name string) Location {
	cfg := r.cfg.Load()
	remote := remotePath(cfg, kind, name)
	local := localPath(cfg, kind, name)

	loc := Location{Primary: remote}
	if cfg.DebugMode && local != "" {
		loc = Location{Primary: local, Fallback: remote}
	}
	if cfg.DisableFallback {
		loc.Fallback = ""
	}
	return loc
}

// ContentBase returns the base used to resolve relative asset paths
// (store thumbnails) in the current mode.
func (r *Resolver) ContentBase() string {
	cfg := r.cfg.Load()
	if cfg.DebugMode && cfg.LocalPaths.Store != "" {
		return cfg.LocalPaths.Store
	}
	return strings.TrimRight(cfg.RemoteBaseURL, "/") + "/store"
}

func remotePath(cfg *config.Config, kind Kind, name string) string {
	base := strings.TrimRight(cfg.RemoteBaseURL, "/")
	switch kind {
	case KindModule:
		return fmt.Sprintf("%s/modules/%s.js", base, name)
	case KindHTML:
		return fmt.Sprintf("%s/html/%s.html", base, name)
	case KindStylesheet:
		return fmt.Sprintf("%s/stylesheet/%s.css", base, name)
	case KindStoreManifest:
		return fmt.Sprintf("%s/store/%ss/%ss.json", base, name, name)
	case KindStoreItem:
		return fmt.Sprintf("%s/store/%s", base, name)
	default:
		return ""
	}
}

func localPath(cfg *config.Config, kind Kind, name string) string {
	paths := cfg.LocalPaths
	switch kind {
	case KindModule:
		if paths.Modules == "" {
			return ""
		}
		return filepath.Join(paths.Modules, name+".js")
	case KindHTML:
		if paths.HTML == "" {
			return ""
		}
		return filepath.Join(paths.HTML, name+".html")
	case KindStylesheet:
		if paths.Stylesheets == "" {
			return ""
		}
		return filepath.Join(paths.Stylesheets, name+".css")
	case KindStoreManifest:
		if paths.Store == "" {
			return ""
		}
		return filepath.Join(paths.Store, name+"s", name+"s.json")
	case KindStoreItem:
		if paths.Store == "" {
			return ""
		}
		return filepath.Join(paths.Store, filepath.FromSlash(name))
	default:
		return ""
	}
}

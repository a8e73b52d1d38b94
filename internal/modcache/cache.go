package modcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/tbessias/modkit/internal/storage"
)

// Version tags every cache entry. Bumping it invalidates all previously
// written entries on their next read, without an explicit deletion pass.
const Version = "3"

// DefaultMaxAge is how long a cached module body stays valid.
const DefaultMaxAge = 24 * time.Hour

const keyPrefix = "modcache:"

type entry struct {
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}

// Cache is a TTL- and version-keyed cache of fetched module bodies,
// layered on the record store. Only remote bodies are cached: local
// sources are re-read from disk on every load so edits take effect
// immediately. Entries expire lazily: a stale or version-mismatched
// entry is deleted when it is next read.
type Cache struct {
	acc       *storage.Accessor
	disabled  bool
	debugMode bool
	maxAge    time.Duration
	now       func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxAge overrides the default entry lifetime.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) { c.maxAge = d }
}

// WithClock injects a clock (used by tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache. disabled turns every read into a miss and every
// write into a no-op; debugMode makes reads for remote URLs miss so a
// local checkout is always preferred over previously cached remote
// content.
func New(acc *storage.Accessor, disabled, debugMode bool, opts ...Option) *Cache {
	c := &Cache{
		acc:       acc,
		disabled:  disabled,
		debugMode: debugMode,
		maxAge:    DefaultMaxAge,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached body for sourceURL, if a valid entry exists.
// Local sources and remote URLs in debug mode always miss.
func (c *Cache) Get(ctx context.Context, sourceURL string) (string, bool) {
	if c.disabled || !isRemote(sourceURL) {
		return "", false
	}
	if c.debugMode {
		return "", false
	}

	key := cacheKey(sourceURL)
	var e entry
	if !c.acc.ReadJSON(ctx, key, &e) {
		return "", false
	}

	if e.Version != Version || c.now().UnixMilli()-e.Timestamp >= c.maxAge.Milliseconds() {
		// Lazy expiry: drop the entry and report a miss.
		_ = c.acc.DeleteRecord(ctx, key)
		return "", false
	}

	return e.Content, true
}

// Put stores the body fetched from sourceURL. A disabled cache never
// writes, and local sources are never cached.
func (c *Cache) Put(ctx context.Context, sourceURL, content string) error {
	if c.disabled || !isRemote(sourceURL) {
		return nil
	}
	e := entry{
		Content:   content,
		Timestamp: c.now().UnixMilli(),
		Version:   Version,
	}
	return c.acc.WriteJSON(ctx, cacheKey(sourceURL), e)
}

// cacheKey derives a record key from the full source URL, so identical
// filenames served from different bases never collide.
func cacheKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func isRemote(sourceURL string) bool {
	return strings.HasPrefix(sourceURL, "http://") || strings.HasPrefix(sourceURL, "https://")
}

package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/tbessias/modkit/internal/fetcher"
	"github.com/tbessias/modkit/internal/installables"
	"github.com/tbessias/modkit/internal/locator"
	"github.com/tbessias/modkit/internal/storage"
)

// ManifestTTL is how long a fetched store manifest stays fresh.
const ManifestTTL = 5 * time.Minute

const cacheKeyPrefix = "storecache:"

// ParseError reports a store manifest whose shape is unusable.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing store manifest %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ManifestEntry is one item offered by the store. All fields are
// required; entries missing any of them are dropped during validation.
type ManifestEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Creator     string `json:"creator"`
	DateCreated string `json:"dateCreated"`
	DateUpdated string `json:"dateUpdated"`
	Filename    string `json:"filename"`
	Thumbnail   string `json:"thumbnail"`

	// DescriptionHTML is the rendered markdown of Description, filled in
	// for API responses.
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
}

type cachedManifest struct {
	Entries   []ManifestEntry `json:"entries"`
	Timestamp int64           `json:"timestamp"`
}

// Client fetches, validates and caches store manifests and installs
// store items.
type Client struct {
	loc   *locator.Resolver
	fetch *fetcher.Client
	acc   *storage.Accessor
	store *installables.Store
	md    goldmark.Markdown
	now   func() time.Time
}

// NewClient creates a store Client.
func NewClient(loc *locator.Resolver, fetch *fetcher.Client, acc *storage.Accessor, store *installables.Store) *Client {
	return &Client{
		loc:   loc,
		fetch: fetch,
		acc:   acc,
		store: store,
		md:    goldmark.New(),
		now:   time.Now,
	}
}

// FetchManifest returns the validated store manifest for a kind. A fresh
// cached copy is served unless forceRefresh is set. On a fetch failure a
// stale cached copy is still served; the error surfaces only when there
// is nothing at all to show.
func (c *Client) FetchManifest(ctx context.Context, kind installables.Kind, forceRefresh bool) ([]ManifestEntry, error) {
	key := cacheKeyPrefix + string(kind)

	var cached cachedManifest
	haveCache := c.acc.ReadJSON(ctx, key, &cached)

	if haveCache && !forceRefresh {
		age := c.now().UnixMilli() - cached.Timestamp
		if age < ManifestTTL.Milliseconds() {
			return cached.Entries, nil
		}
	}

	entries, err := c.fetchAndValidate(ctx, kind)
	if err != nil {
		if haveCache {
			log.Printf("storefront: serving stale %s manifest: %v", kind, err)
			return cached.Entries, nil
		}
		return nil, err
	}

	fresh := cachedManifest{Entries: entries, Timestamp: c.now().UnixMilli()}
	if werr := c.acc.WriteJSON(ctx, key, fresh); werr != nil {
		log.Printf("storefront: caching %s manifest: %v", kind, werr)
	}
	return entries, nil
}

// Install fetches a store item's source and saves it as an enabled
// installable.
func (c *Client) Install(ctx context.Context, kind installables.Kind, entry ManifestEntry) (*installables.Installable, error) {
	loc := c.loc.Resolve(locator.KindStoreItem, entry.Filename)
	code, err := c.fetchWithFallback(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("fetching store item %s: %w", entry.Filename, err)
	}

	item := &installables.Installable{
		Kind:        kind,
		Name:        entry.Name,
		Description: entry.Description,
		Creator:     entry.Creator,
		Thumbnail:   entry.Thumbnail,
		Code:        code,
		Enabled:     true,
	}
	if err := c.store.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("saving installed %s: %w", kind, err)
	}
	return item, nil
}

func (c *Client) fetchAndValidate(ctx context.Context, kind installables.Kind) ([]ManifestEntry, error) {
	loc := c.loc.Resolve(locator.KindStoreManifest, string(kind))
	body, err := c.fetchWithFallback(ctx, loc)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, &ParseError{URL: loc.Primary, Err: fmt.Errorf("top-level value must be an array: %w", err)}
	}

	base := c.loc.ContentBase()
	entries := make([]ManifestEntry, 0, len(raw))
	dropped := 0
	for i, msg := range raw {
		var e ManifestEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			dropped++
			continue
		}
		if err := validateEntry(&e); err != nil {
			log.Printf("storefront: dropping %s entry %d (%s): %v", kind, i, e.Name, err)
			dropped++
			continue
		}
		e.Thumbnail = resolveThumbnail(base, e.Thumbnail)
		e.DescriptionHTML = c.renderDescription(e.Description)
		entries = append(entries, e)
	}
	if dropped > 0 {
		log.Printf("storefront: dropped %d invalid %s entries", dropped, kind)
	}
	return entries, nil
}

func (c *Client) fetchWithFallback(ctx context.Context, loc locator.Location) (string, error) {
	body, err := c.fetch.FetchText(ctx, loc.Primary)
	if err == nil {
		return body, nil
	}
	if loc.Fallback == "" {
		return "", err
	}
	body, ferr := c.fetch.FetchText(ctx, loc.Fallback)
	if ferr != nil {
		return "", fmt.Errorf("primary %s failed (%v); fallback: %w", loc.Primary, err, ferr)
	}
	return body, nil
}

func (c *Client) renderDescription(md string) string {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}

func validateEntry(e *ManifestEntry) error {
	switch {
	case e.Name == "":
		return fmt.Errorf("missing name")
	case e.Description == "":
		return fmt.Errorf("missing description")
	case e.Creator == "":
		return fmt.Errorf("missing creator")
	case e.DateCreated == "":
		return fmt.Errorf("missing dateCreated")
	case e.DateUpdated == "":
		return fmt.Errorf("missing dateUpdated")
	case e.Filename == "":
		return fmt.Errorf("missing filename")
	case e.Thumbnail == "":
		return fmt.Errorf("missing thumbnail")
	}
	if !validDate(e.DateCreated) {
		return fmt.Errorf("bad dateCreated %q", e.DateCreated)
	}
	if !validDate(e.DateUpdated) {
		return fmt.Errorf("bad dateUpdated %q", e.DateUpdated)
	}
	return nil
}

func validDate(s string) bool {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// resolveThumbnail turns a manifest-relative thumbnail path into a
// fetchable location. Absolute URLs pass through untouched.
func resolveThumbnail(base, thumb string) string {
	if strings.HasPrefix(thumb, "http://") || strings.HasPrefix(thumb, "https://") {
		return thumb
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(thumb, "/")
}

package installables

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tbessias/modkit/internal/db"
)

// timeLayout is fixed-width so that lexicographic ordering of the stored
// strings matches chronological ordering (RFC3339Nano trims zeros and
// does not).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store provides CRUD operations for plugin and theme records. It is the
// single owner of the two collections: the management UI mutates them
// through the HTTP API, never by reaching into shared state.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save inserts or updates a record. A missing ID gets a generated UUID
// and a CreatedAt stamp; UpdatedAt is always bumped to now.
func (s *Store) Save(ctx context.Context, item *Installable) error {
	if !item.Kind.Valid() {
		return fmt.Errorf("invalid kind %q", item.Kind)
	}
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}

	now := time.Now().UTC()
	if item.ID == "" {
		item.ID = uuid.NewString()
		item.CreatedAt = now
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	enabled := 0
	if item.Enabled {
		enabled = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO installables (id, kind, name, description, creator, thumbnail, code, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			creator = excluded.creator,
			thumbnail = excluded.thumbnail,
			code = excluded.code,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		item.ID, string(item.Kind), item.Name, item.Description, item.Creator,
		item.Thumbnail, item.Code, enabled,
		item.CreatedAt.Format(timeLayout), item.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving %s %q: %w", item.Kind, item.Name, err)
	}
	return nil
}

// Get retrieves a single record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Installable, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, description, creator, thumbnail, code, enabled, created_at, updated_at
		FROM installables WHERE id = ?`, id)

	item, err := scanInstallable(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("installable %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting installable %s: %w", id, err)
	}
	return item, nil
}

// List returns every record of a kind, most recently updated first.
// Storage order carries no meaning; display order is always updated_at
// descending.
func (s *Store) List(ctx context.Context, kind Kind) ([]Installable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, description, creator, thumbnail, code, enabled, created_at, updated_at
		FROM installables WHERE kind = ? ORDER BY updated_at DESC`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing %ss: %w", kind, err)
	}
	defer rows.Close()

	var result []Installable
	for rows.Next() {
		item, err := scanInstallable(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", kind, err)
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

// SetEnabled toggles a record and bumps its UpdatedAt.
func (s *Store) SetEnabled(ctx context.Context, id string, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE installables SET enabled = ?, updated_at = ? WHERE id = ?",
		v, time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("toggling installable %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("installable %s not found", id)
	}
	return nil
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM installables WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting installable %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("installable %s not found", id)
	}
	return nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInstallable(sc scanner) (*Installable, error) {
	var (
		item       Installable
		kind       string
		enabled    int
		createdAt  string
		updatedAt  string
	)

	err := sc.Scan(&item.ID, &kind, &item.Name, &item.Description, &item.Creator,
		&item.Thumbnail, &item.Code, &enabled, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	item.Kind = Kind(kind)
	item.Enabled = enabled != 0
	item.CreatedAt = parseTimestamp(createdAt)
	item.UpdatedAt = parseTimestamp(updatedAt)

	return &item, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

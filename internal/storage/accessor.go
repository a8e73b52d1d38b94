package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/tbessias/modkit/internal/db"
)

// StorageError reports a failed write to the persistent record store.
// Reads never produce it: a missing or unreadable record falls back to
// the caller-supplied default instead.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage write for key %q failed: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Accessor is the single owner of the key-value record store. Every
// component that needs ad-hoc persistence (module cache, store manifest
// cache) goes through it rather than touching the database directly.
type Accessor struct {
	db *db.DB
}

// NewAccessor creates an Accessor backed by the given database.
func NewAccessor(database *db.DB) *Accessor {
	return &Accessor{db: database}
}

// ReadRecord returns the value stored under key, or fallback if the key
// is missing or unreadable. It never returns an error.
func (a *Accessor) ReadRecord(ctx context.Context, key, fallback string) string {
	var value string
	err := a.db.QueryRowContext(ctx, "SELECT value FROM records WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("storage: reading record %q: %v", key, err)
		}
		return fallback
	}
	return value
}

// WriteRecord persists value under key, overwriting any previous value.
// Failures surface to the caller: a silently dropped save would mislead
// whoever initiated it.
func (a *Accessor) WriteRecord(ctx context.Context, key, value string) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO records (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return &StorageError{Key: key, Err: err}
	}
	return nil
}

// DeleteRecord removes the record under key. Deleting a missing key is
// not an error.
func (a *Accessor) DeleteRecord(ctx context.Context, key string) error {
	if _, err := a.db.ExecContext(ctx, "DELETE FROM records WHERE key = ?", key); err != nil {
		return &StorageError{Key: key, Err: err}
	}
	return nil
}

// ReadJSON unmarshals the record under key into dst. It reports whether
// a well-formed record was found; malformed JSON counts as absent.
func (a *Accessor) ReadJSON(ctx context.Context, key string, dst any) bool {
	raw := a.ReadRecord(ctx, key, "")
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Printf("storage: record %q holds malformed JSON: %v", key, err)
		return false
	}
	return true
}

// WriteJSON marshals v and persists it under key.
func (a *Accessor) WriteJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Key: key, Err: err}
	}
	return a.WriteRecord(ctx, key, string(data))
}

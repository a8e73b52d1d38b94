package installables

import "time"

// Kind discriminates the two content collections.
type Kind string

const (
	KindPlugin Kind = "plugin"
	KindTheme  Kind = "theme"
)

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool {
	return k == KindPlugin || k == KindTheme
}

// Installable is a persisted user-authored plugin or theme record.
// ID is generated once at creation and never changes; it is the sole
// identity used for lookup, update and deletion.
type Installable struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Creator     string    `json:"creator,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Code        string    `json:"code"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

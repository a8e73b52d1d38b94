package installables

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tbessias/modkit/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func testTheme(id, name string) *Installable {
	return &Installable{
		ID:      id,
		Kind:    KindTheme,
		Name:    name,
		Code:    ".sidebar { background: #111; }",
		Enabled: true,
	}
}

func TestSaveGeneratesID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := testTheme("", "Dark Sidebar")
	if err := store.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if item.ID == "" {
		t.Fatal("expected generated ID")
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := testTheme("t-1", "Dark Sidebar")
	if err := store.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "t-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != item.ID {
		t.Errorf("ID = %q, want %q", got.ID, item.ID)
	}
	if got.Code != item.Code {
		t.Errorf("Code = %q, want %q", got.Code, item.Code)
	}
	if got.Enabled != item.Enabled {
		t.Errorf("Enabled = %v, want %v", got.Enabled, item.Enabled)
	}
}

func TestUpdatedAtMonotonic(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := testTheme("t-1", "Dark Sidebar")
	if err := store.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first := item.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	item.Code = ".sidebar { background: #222; }"
	if err := store.Save(ctx, item); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	got, err := store.Get(ctx, "t-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UpdatedAt.Before(first) {
		t.Errorf("UpdatedAt went backwards: %v < %v", got.UpdatedAt, first)
	}
	if got.Code != item.Code {
		t.Errorf("Code not updated: %q", got.Code)
	}
}

func TestListSortedByUpdatedAt(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := testTheme("t-old", "Older")
	newer := testTheme("t-new", "Newer")
	if err := store.Save(ctx, older); err != nil {
		t.Fatalf("Save: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := store.Save(ctx, newer); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Touching the older record should move it to the front.
	time.Sleep(2 * time.Millisecond)
	if err := store.SetEnabled(ctx, "t-old", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	got, err := store.List(ctx, KindTheme)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 themes, got %d", len(got))
	}
	if got[0].ID != "t-old" {
		t.Errorf("expected most recently updated first, got %q", got[0].ID)
	}
}

func TestListSeparatesKinds(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	theme := testTheme("t-1", "Theme")
	plugin := &Installable{ID: "p-1", Kind: KindPlugin, Name: "Plugin", Code: "1 + 1", Enabled: true}
	if err := store.Save(ctx, theme); err != nil {
		t.Fatalf("Save theme: %v", err)
	}
	if err := store.Save(ctx, plugin); err != nil {
		t.Fatalf("Save plugin: %v", err)
	}

	themes, err := store.List(ctx, KindTheme)
	if err != nil {
		t.Fatalf("List themes: %v", err)
	}
	if len(themes) != 1 || themes[0].ID != "t-1" {
		t.Errorf("themes = %v, want only t-1", themes)
	}

	plugins, err := store.List(ctx, KindPlugin)
	if err != nil {
		t.Fatalf("List plugins: %v", err)
	}
	if len(plugins) != 1 || plugins[0].ID != "p-1" {
		t.Errorf("plugins = %v, want only p-1", plugins)
	}
}

func TestSetEnabledNotFound(t *testing.T) {
	store := setupTestStore(t)
	if err := store.SetEnabled(context.Background(), "nope", true); err == nil {
		t.Fatal("expected error for missing ID")
	}
}

func TestDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := testTheme("t-1", "Doomed")
	if err := store.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "t-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "t-1"); err == nil {
		t.Error("expected Get to fail after delete")
	}
	if err := store.Delete(ctx, "t-1"); err == nil {
		t.Error("expected error deleting missing ID")
	}
}

func TestSaveRejectsInvalidKind(t *testing.T) {
	store := setupTestStore(t)
	item := &Installable{Kind: "gadget", Name: "X"}
	if err := store.Save(context.Background(), item); err == nil {
		t.Fatal("expected error for invalid kind")
	}
}

func TestHTTPHandlers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	t.Run("POST /api/installables/{kind}", func(t *testing.T) {
		body, _ := json.Marshal(Installable{Name: "Hide Banner", Code: "// noop", Enabled: true})
		req := httptest.NewRequest(http.MethodPost, "/api/installables/plugin", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
		}
		var got Installable
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if got.ID == "" {
			t.Error("expected server-assigned ID")
		}
		if got.Kind != KindPlugin {
			t.Errorf("Kind = %q, want plugin", got.Kind)
		}
	})

	t.Run("POST unknown kind", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/installables/gadget", bytes.NewReader([]byte("{}")))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("GET /api/installables/{kind}", func(t *testing.T) {
		if err := store.Save(ctx, testTheme("t-list", "Listed")); err != nil {
			t.Fatalf("Save: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/installables/theme", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var got []Installable
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if len(got) != 1 || got[0].ID != "t-list" {
			t.Errorf("expected [t-list], got %v", got)
		}
	})

	t.Run("enable/disable round trip", func(t *testing.T) {
		if err := store.Save(ctx, testTheme("t-tgl", "Toggled")); err != nil {
			t.Fatalf("Save: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/installables/item/t-tgl/disable", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}

		got, err := store.Get(ctx, "t-tgl")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Enabled {
			t.Error("expected Enabled = false after disable")
		}
	})

	t.Run("DELETE /api/installables/item/{id}", func(t *testing.T) {
		if err := store.Save(ctx, testTheme("t-del", "Doomed")); err != nil {
			t.Fatalf("Save: %v", err)
		}

		req := httptest.NewRequest(http.MethodDelete, "/api/installables/item/t-del", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}

		if _, err := store.Get(ctx, "t-del"); err == nil {
			t.Error("expected record gone after DELETE")
		}
	})

	t.Run("GET missing item", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/installables/item/nope", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

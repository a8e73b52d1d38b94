package installables

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the plugin/theme CRUD endpoints on the given router.
// These are the mutation intents the management popup sends; it follows each
// mutation with a refresh call so the host document picks up the change.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/installables", func(r chi.Router) {
		r.Get("/{kind}", handleList(store))
		r.Post("/{kind}", handleCreate(store))
		r.Get("/item/{id}", handleGet(store))
		r.Put("/item/{id}", handleUpdate(store))
		r.Post("/item/{id}/enable", handleSetEnabled(store, true))
		r.Post("/item/{id}/disable", handleSetEnabled(store, false))
		r.Delete("/item/{id}", handleDelete(store))
	})
}

func kindParam(r *http.Request) (Kind, bool) {
	k := Kind(chi.URLParam(r, "kind"))
	return k, k.Valid()
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(r)
		if !ok {
			http.Error(w, "unknown kind", http.StatusBadRequest)
			return
		}

		items, err := store.List(r.Context(), kind)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleCreate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(r)
		if !ok {
			http.Error(w, "unknown kind", http.StatusBadRequest)
			return
		}

		var item Installable
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		item.ID = "" // IDs are server-assigned
		item.Kind = kind

		if item.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		if err := store.Save(r.Context(), &item); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func handleUpdate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		existing, err := store.Get(r.Context(), id)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var patch Installable
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if patch.Name != "" {
			existing.Name = patch.Name
		}
		existing.Description = patch.Description
		existing.Code = patch.Code
		existing.Enabled = patch.Enabled

		if err := store.Save(r.Context(), existing); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, existing)
	}
}

func handleSetEnabled(store *Store, enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.SetEnabled(r.Context(), id, enabled); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": enabled})
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

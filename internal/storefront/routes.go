package storefront

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tbessias/modkit/internal/event"
	"github.com/tbessias/modkit/internal/installables"
)

// RegisterRoutes mounts the store browsing and install endpoints.
func RegisterRoutes(r chi.Router, client *Client, bus *event.Bus) {
	r.Route("/api/store", func(r chi.Router) {
		r.Get("/{kind}", handleManifest(client))
		r.Post("/{kind}/install", handleInstall(client, bus))
	})
}

func kindParam(r *http.Request) (installables.Kind, bool) {
	k := installables.Kind(chi.URLParam(r, "kind"))
	return k, k.Valid()
}

func handleManifest(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(r)
		if !ok {
			http.Error(w, "unknown kind", http.StatusBadRequest)
			return
		}
		force := r.URL.Query().Get("refresh") == "true"

		entries, err := client.FetchManifest(r.Context(), kind, force)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleInstall(client *Client, bus *event.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindParam(r)
		if !ok {
			http.Error(w, "unknown kind", http.StatusBadRequest)
			return
		}

		var entry ManifestEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if entry.Name == "" || entry.Filename == "" {
			http.Error(w, "name and filename are required", http.StatusBadRequest)
			return
		}

		item, err := client.Install(r.Context(), kind, entry)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		bus.Publish(event.Event{Type: event.TypeInstalled, Kind: kind, Names: []string{item.Name}})
		writeJSON(w, http.StatusCreated, item)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

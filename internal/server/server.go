package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tbessias/modkit/internal/config"
	"github.com/tbessias/modkit/internal/engine"
	"github.com/tbessias/modkit/internal/event"
	"github.com/tbessias/modkit/internal/installables"
	"github.com/tbessias/modkit/internal/locator"
	"github.com/tbessias/modkit/internal/page"
	"github.com/tbessias/modkit/internal/storefront"
)

// Server is the HTTP/WebSocket surface the management popup talks to.
// Configuration is read through the locator's snapshot so a settings
// update never races handlers reading it on other goroutines.
type Server struct {
	loc        *locator.Resolver
	cfgPath    string
	store      *installables.Store
	storeFront *storefront.Client
	engine     *engine.Engine
	doc        *page.Document
	bus        *event.Bus
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all dependencies. cfgPath is where settings
// updates are persisted.
func New(loc *locator.Resolver, cfgPath string, store *installables.Store, sf *storefront.Client, eng *engine.Engine, doc *page.Document, bus *event.Bus) *Server {
	s := &Server{
		loc:        loc,
		cfgPath:    cfgPath,
		store:      store,
		storeFront: sf,
		engine:     eng,
		doc:        doc,
		bus:        bus,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.loc.Config().Server.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	installables.RegisterRoutes(r, s.store)
	storefront.RegisterRoutes(r, s.storeFront, s.bus)

	r.Post("/api/refresh/{target}", s.handleRefresh)
	r.Get("/api/page", s.handlePageSnapshot)
	r.Get("/api/settings", s.handleGetSettings)
	r.Put("/api/settings", s.handlePutSettings)
	r.Get("/api/events", s.handleEvents)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var err error
	target := chi.URLParam(r, "target")
	switch target {
	case "themes":
		err = s.engine.RefreshThemes(r.Context())
	case "plugins":
		err = s.engine.RefreshPlugins(r.Context())
	case "all":
		err = s.engine.RefreshAll(r.Context())
	default:
		http.Error(w, "unknown refresh target", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"refreshed": target})
}

func (s *Server) handlePageSnapshot(w http.ResponseWriter, r *http.Request) {
	nodes := s.doc.Snapshot()
	if nodes == nil {
		nodes = []page.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.loc.Config())
}

// handlePutSettings replaces the stored settings. Last write wins; the
// service is the single owner so there is no merge to do. The new
// snapshot is swapped in atomically rather than written over the old
// struct, so concurrent readers always see a consistent config.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var updated config.Config
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := updated.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.loc.Update(&updated)
	if s.cfgPath != "" {
		if err := updated.Save(s.cfgPath); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, &updated)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.loc.Config().Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("modkit server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

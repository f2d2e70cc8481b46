// Package api exposes the integrity engine over HTTP. Handlers stay
// thin: they translate requests into engine calls and engine faults into
// status codes.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/todmy/doc-integrity/internal/auth"
	"github.com/todmy/doc-integrity/internal/duplicate"
	"github.com/todmy/doc-integrity/internal/fault"
	"github.com/todmy/doc-integrity/internal/storage"
	"github.com/todmy/doc-integrity/internal/tampering"
	"github.com/todmy/doc-integrity/internal/version"
)

type Server struct {
	router *chi.Mux

	store        *version.Store
	documents    storage.DocumentRepository
	fingerprints storage.FingerprintRepository
	detector     *duplicate.Detector
	analyzer     *tampering.Analyzer

	authService  auth.Service
	authHandlers *auth.Handlers
}

// NewServer wires the engine components behind the HTTP routes.
func NewServer(
	store *version.Store,
	documents storage.DocumentRepository,
	fingerprints storage.FingerprintRepository,
	detector *duplicate.Detector,
	analyzer *tampering.Analyzer,
	authService auth.Service,
) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:       r,
		store:        store,
		documents:    documents,
		fingerprints: fingerprints,
		detector:     detector,
		analyzer:     analyzer,
		authService:  authService,
		authHandlers: auth.NewHandlers(authService),
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public)
		r.Post("/auth/register", s.authHandlers.Register)
		r.Post("/auth/login", s.authHandlers.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.authService))

			r.Get("/auth/me", s.authHandlers.Me)

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", s.handleListDocuments)
				r.Post("/", s.handleIngest)
				r.Post("/check-duplicate", s.handleCheckDuplicate)

				r.Get("/{documentID}", s.handleGetDocument)
				r.Put("/{documentID}", s.handleUpdateDocument)
				r.Delete("/{documentID}", s.handleDeleteDocument)

				r.Get("/{documentID}/history", s.handleHistory)
				r.Get("/{documentID}/diff", s.handleDiff)
				r.Post("/{documentID}/revert", s.handleRevert)
				r.Post("/{documentID}/rebuild", s.handleRebuild)
			})

			r.Route("/analysis", func(r chi.Router) {
				r.Post("/pair", s.handlePairAnalysis)
				r.Post("/corpus", s.handleCorpusAnalysis)
			})
		})
	})
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFault maps engine fault kinds onto HTTP status codes.
func respondFault(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if kind, ok := fault.KindOf(err); ok {
		switch kind {
		case fault.Validation:
			status = http.StatusBadRequest
		case fault.NotFound:
			status = http.StatusNotFound
		case fault.Corrupted:
			status = http.StatusUnprocessableEntity
		case fault.Storage:
			status = http.StatusInternalServerError
		}
	}
	respondError(w, status, err.Error())
}

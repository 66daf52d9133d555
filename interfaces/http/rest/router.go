package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"careerlens/interfaces/http/rest/handlers"
	"careerlens/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	clusterHandler   *handlers.ClusterHandler
	narrativeHandler *handlers.NarrativeHandler
	logger           *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	clusterHandler *handlers.ClusterHandler,
	narrativeHandler *handlers.NarrativeHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		clusterHandler:   clusterHandler,
		narrativeHandler: narrativeHandler,
		logger:           logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.careerlens.io"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate())

		// Cluster endpoints
		r.Route("/clusters", func(r chi.Router) {
			r.Get("/", rt.clusterHandler.ListClusters)
			r.Post("/extract", rt.clusterHandler.ExtractClusters)
			r.Get("/{clusterID}", rt.clusterHandler.GetCluster)
			r.Get("/{clusterID}/participation", rt.clusterHandler.GetParticipation)
			r.Post("/{clusterID}/narrative", rt.narrativeHandler.GenerateNarrative)
		})

		// Narrative endpoints
		r.Route("/narratives", func(r chi.Router) {
			r.Get("/{narrativeID}", rt.narrativeHandler.GetNarrative)
		})

		r.Get("/frameworks", rt.narrativeHandler.ListFrameworks)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes wires every endpoint. Gated routes pass through the access
// gate, parameterized with the payload field holding the caller's credential.
func setupRoutes(r chi.Router, handlers *routeHandlers, gate accessGate) {
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/", handlers.metaHandler.landingPage())
		r.Get("/health", handlers.metaHandler.health())
		r.Get("/agent", handlers.metaHandler.agentManifest())

		r.Get("/stats", handlers.discoveryHandler.getStats())
		r.Get("/categories", handlers.discoveryHandler.getCategories())
		r.Get("/tags", handlers.discoveryHandler.getTags())
		r.Get("/search", handlers.projectHandler.searchProjects())

		r.Get("/supporters/{address}", handlers.signalHandler.getSupporter())

		r.Get("/projects", handlers.projectHandler.listProjects())
		r.With(gate.Require("owner")).Post("/projects", handlers.projectHandler.createProject())
		r.Get("/projects/{projectID}", handlers.projectHandler.getProject())
		r.With(gate.Require("owner")).Put("/projects/{projectID}", handlers.projectHandler.updateProject())
		r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())

		r.With(gate.Require("address")).Post("/projects/{projectID}/signal", handlers.signalHandler.upsertSignal())
		r.Delete("/projects/{projectID}/signal", handlers.signalHandler.removeSignal())
	})
}

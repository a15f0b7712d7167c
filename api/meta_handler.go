package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const serviceName = "signalboard"
const serviceVersion = "1.0.0"

type metaHandler struct {
	responder Responder
	logger    zerolog.Logger
}

func newMetaHandler() metaHandler {
	logger := log.With().Str("handlerName", "metaHandler").Logger()

	return metaHandler{
		responder: NewResponder(logger),
		logger:    logger,
	}
}

type manifestEndpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Auth        string `json:"auth"`
	Description string `json:"description"`
}

// manifestEndpoints is the machine-readable capability listing served at
// /agent. Keep in sync with setupRoutes.
var manifestEndpoints = []manifestEndpoint{
	{"POST", "/projects", "gated", "Register a project"},
	{"GET", "/projects", "open", "List projects with filters, sorting and pagination"},
	{"GET", "/projects/{projectID}", "open", "Fetch a project with its most recent supporters"},
	{"PUT", "/projects/{projectID}", "gated", "Update a project (owner only)"},
	{"DELETE", "/projects/{projectID}", "open", "Delete a project and its signals"},
	{"POST", "/projects/{projectID}/signal", "gated", "Signal support for a project"},
	{"DELETE", "/projects/{projectID}/signal", "open", "Withdraw a signal"},
	{"GET", "/supporters/{address}", "open", "Aggregate a supporter's signals across projects"},
	{"GET", "/categories", "open", "Project counts per category"},
	{"GET", "/tags", "open", "Most used tags"},
	{"GET", "/search", "open", "Free-text project search"},
	{"GET", "/stats", "open", "Registry-wide counters"},
	{"GET", "/health", "open", "Service health"},
	{"GET", "/agent", "open", "This manifest"},
}

func (h metaHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, map[string]any{
			"status":    "ok",
			"service":   serviceName,
			"version":   serviceVersion,
			"endpoints": len(manifestEndpoints),
		})
	}
}

func (h metaHandler) agentManifest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, map[string]any{
			"name":        serviceName,
			"version":     serviceVersion,
			"description": "Self-registration project registry with weighted community signals",
			"endpoints":   manifestEndpoints,
		})
	}
}

func (h metaHandler) landingPage() http.HandlerFunc {
	page := []byte(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>signalboard</title>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 680px; margin: 3rem auto; padding: 0 1rem; color: #222; }
    code { background: #f2f2f2; padding: 0.1rem 0.3rem; border-radius: 3px; }
  </style>
</head>
<body>
  <h1>signalboard</h1>
  <p>A self-registration project registry. Anyone on the allow-list can
  register a project; the community expresses weighted support with signals.</p>
  <p>Start with <code>GET /projects</code>, or fetch the machine-readable
  capability manifest at <code>GET /agent</code>.</p>
</body>
</html>
`)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(page); err != nil {
			h.logger.Error().Err(err).Msg("error writing landing page")
		}
	}
}

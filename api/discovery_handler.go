package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signalboard/signalboard-backend/store"
)

// topTagsLimit caps the tag count listing.
const topTagsLimit = 50

type discoveryHandler struct {
	responder   Responder
	logger      zerolog.Logger
	store       store.Store
	startupTime time.Time
}

func newDiscoveryHandler(st store.Store, startupTime time.Time) discoveryHandler {
	logger := log.With().Str("handlerName", "discoveryHandler").Logger()

	return discoveryHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		store:       st,
		startupTime: startupTime,
	}
}

// getCategories counts live projects per category, zero-count categories
// included.
func (h discoveryHandler) getCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, map[string]any{
			"categories": h.store.Projects().CategoryCounts(),
		})
	}
}

// getTags counts tag occurrences across all live projects, top 50.
func (h discoveryHandler) getTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, map[string]any{
			"tags": h.store.Projects().TagCounts(topTagsLimit),
		})
	}
}

type statsResponse struct {
	store.Stats
	UptimeSeconds int64 `json:"uptimeSeconds"`
}

func (h discoveryHandler) getStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, statsResponse{
			Stats:         h.store.Stats(),
			UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		})
	}
}

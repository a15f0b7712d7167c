package api

import (
	"time"

	"github.com/signalboard/signalboard-backend/store"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(st store.Store, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		projectHandler:   newProjectHandler(st.Projects(), st.Signals()),
		signalHandler:    newSignalHandler(st.Signals()),
		discoveryHandler: newDiscoveryHandler(st, startupTime),
		metaHandler:      newMetaHandler(),
	}
}

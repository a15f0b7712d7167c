package api

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler   projectHandler
	signalHandler    signalHandler
	discoveryHandler discoveryHandler
	metaHandler      metaHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error" example:"not found"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"owner"`
	Details string `json:"details,omitempty" example:"Additional error details"`
}

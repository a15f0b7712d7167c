package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signalboard/signalboard-backend/errs"
	"github.com/signalboard/signalboard-backend/models"
	"github.com/signalboard/signalboard-backend/store"
)

type projectHandler struct {
	responder Responder
	logger    zerolog.Logger
	validate  *payloadValidator
	projects  *store.ProjectStore
	signals   *store.SignalStore
}

func newProjectHandler(projects *store.ProjectStore, signals *store.SignalStore) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder: NewResponder(logger),
		logger:    logger,
		validate:  newPayloadValidator(),
		projects:  projects,
		signals:   signals,
	}
}

type createProjectRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Logo        string   `json:"logo"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Owner       string   `json:"owner" validate:"required,wallet"`
}

// projectDetail is a project with its most recent signals embedded.
type projectDetail struct {
	models.Project
	RecentSupporters []models.Signal `json:"recentSupporters"`
}

type projectPage struct {
	Projects []*models.Project `json:"projects"`
	Total    int               `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

// recentSupportersLimit caps the signals embedded in a project detail view.
const recentSupportersLimit = 20

// createProject registers a new project. Allow-list gating happens in the
// access gate middleware before this handler runs.
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProjectRequest
		if err := decodeJSONBody(r, &req); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode project request body")
			h.responder.WriteError(w, err)
			return
		}

		if err := h.validate.Validate(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project := h.projects.Add(store.NewProject{
			Name:        req.Name,
			Description: req.Description,
			URL:         req.URL,
			Logo:        req.Logo,
			Category:    req.Category,
			Tags:        req.Tags,
			Owner:       req.Owner,
		})

		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

// listProjects applies category/tag/minSupport filters, sorts and paginates.
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		projects, total, offset, limit := h.projects.List(store.ListQuery{
			Category:   query.Get("category"),
			Tag:        query.Get("tag"),
			MinSupport: queryInt(query.Get("minSupport"), 0),
			Sort:       query.Get("sort"),
			Offset:     queryInt(query.Get("offset"), 0),
			Limit:      queryInt(query.Get("limit"), 0),
		})

		h.responder.WriteJSON(w, projectPage{
			Projects: projects,
			Total:    total,
			Offset:   offset,
			Limit:    limit,
		})
	}
}

// getProject returns a project with up to 20 of its most recent signals.
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		project, err := h.projects.FindByID(projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, projectDetail{
			Project:          *project,
			RecentSupporters: h.signals.RecentForProject(projectID, recentSupportersLimit),
		})
	}
}

// updateProject applies a partial update. An owner supplied in the payload
// must match the stored owner.
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		var upd models.ProjectUpdate
		if err := decodeJSONBody(r, &upd); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode project update body")
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Update(projectID, upd)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

type deleteProjectRequest struct {
	Owner *string `json:"owner"`
}

// deleteProject removes a project and all of its signals.
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		// Delete bodies are optional; decode the owner when one is sent.
		var req deleteProjectRequest
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err == nil && len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				h.responder.WriteError(w, errs.NewInvalidJSONError(err))
				return
			}
		}

		if req.Owner == nil {
			h.logger.Warn().Str("projectID", projectID).Msg("project delete without owner field; ownership check skipped")
		}

		removedSignals, err := h.projects.Delete(projectID, req.Owner)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().
			Str("projectID", projectID).
			Int("removedSignals", removedSignals).
			Msg("project deleted")

		h.responder.WriteJSON(w, map[string]any{
			"success": true,
			"deleted": projectID,
		})
	}
}

// searchProjects matches free text against names, descriptions and tags.
func (h projectHandler) searchProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if len(query) < 2 {
			h.responder.WriteError(w, errs.NewInvalidFieldError("q", "query must be at least 2 characters"))
			return
		}

		projects := h.projects.Search(query, queryInt(r.URL.Query().Get("limit"), 0))

		h.responder.WriteJSON(w, map[string]any{
			"projects": projects,
			"total":    len(projects),
		})
	}
}

// decodeJSONBody reads a bounded request body into dst, mapping failures to
// client errors.
func decodeJSONBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errs.NewBadRequestError("failed to read request body")
	}
	if len(body) == 0 {
		return errs.NewMalformedPayloadError("JSON", nil)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errs.NewInvalidJSONError(err)
	}
	return nil
}

func queryInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	asInt, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return asInt
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signalboard/signalboard-backend/errs"
	"github.com/signalboard/signalboard-backend/models"
	"github.com/signalboard/signalboard-backend/store"
)

type signalHandler struct {
	responder Responder
	logger    zerolog.Logger
	validate  *payloadValidator
	signals   *store.SignalStore
}

func newSignalHandler(signals *store.SignalStore) signalHandler {
	logger := log.With().Str("handlerName", "signalHandler").Logger()

	return signalHandler{
		responder: NewResponder(logger),
		logger:    logger,
		validate:  newPayloadValidator(),
		signals:   signals,
	}
}

// flexAmount tolerates clients sending amounts as JSON numbers or numeric
// strings. Anything unparseable decodes to zero, which the store clamps up
// to the minimum amount.
type flexAmount int

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	var asNumber float64
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*a = flexAmount(asNumber)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(asString)); err == nil {
			*a = flexAmount(parsed)
			return nil
		}
	}

	*a = 0
	return nil
}

type signalRequest struct {
	Address string     `json:"address" validate:"required,wallet"`
	Amount  flexAmount `json:"amount"`
	Message string     `json:"message"`
}

type signalResponse struct {
	Signal  *models.Signal        `json:"signal"`
	Project models.ProjectSummary `json:"project"`
}

// upsertSignal records support for a project. A first signal from an address
// returns 201; a repeat signal accumulates onto the existing record and
// returns 200.
func (h signalHandler) upsertSignal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		var req signalRequest
		if err := decodeJSONBody(r, &req); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode signal request body")
			h.responder.WriteError(w, err)
			return
		}

		if err := h.validate.Validate(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		signal, summary, created, err := h.signals.Upsert(projectID, req.Address, int(req.Amount), req.Message)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		h.responder.WriteJSONStatus(w, status, signalResponse{
			Signal:  signal,
			Project: summary,
		})
	}
}

type removeSignalRequest struct {
	Address string `json:"address" validate:"required"`
}

// removeSignal deletes the caller's live signal for a project.
func (h signalHandler) removeSignal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		var req removeSignalRequest
		if err := decodeJSONBody(r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.validate.Validate(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		removedID, err := h.signals.Remove(projectID, req.Address)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]any{
			"success": true,
			"removed": removedID,
		})
	}
}

type supporterResponse struct {
	Address     string                   `json:"address"`
	Signals     []models.SupporterSignal `json:"signals"`
	Projects    int                      `json:"projects"`
	TotalAmount int                      `json:"totalAmount"`
}

// getSupporter aggregates every live signal by an address across all projects.
func (h signalHandler) getSupporter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")
		if !models.IsAddress(address) {
			h.responder.WriteError(w, errs.NewInvalidFieldError("address", "not a valid address"))
			return
		}

		signals, projects, totalAmount := h.signals.SupporterActivity(address)

		h.responder.WriteJSON(w, supporterResponse{
			Address:     models.NormalizeAddress(address),
			Signals:     signals,
			Projects:    projects,
			TotalAmount: totalAmount,
		})
	}
}

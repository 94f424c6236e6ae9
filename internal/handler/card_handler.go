package handler

import (
	"net/http"
	"net/url"

	"seven-oz-loyalty/internal/model"
	"seven-oz-loyalty/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CardHandler serves stamp card queries and resets.
type CardHandler struct {
	service service.ClaimService
	logger  zerolog.Logger
}

// NewCardHandler creates a new card handler.
func NewCardHandler(service service.ClaimService, logger zerolog.Logger) *CardHandler {
	return &CardHandler{
		service: service,
		logger:  logger.With().Str("handler", "card").Logger(),
	}
}

// Get handles GET /api/stampcard/{id} requests.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}

	card, err := h.service.GetCard(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewCardResponse(card))
}

// Reset handles POST /api/stampcard/{id}/reset requests.
func (h *CardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}

	if err := h.service.ResetCard(r.Context(), id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// customerID extracts the {id} path parameter. chi matches on the raw path
// when one is present, in which case the value is still percent-encoded.
func (h *CardHandler) customerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id, true
	}

	id, err := url.PathUnescape(id)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid customer id", h.logger)
		return "", false
	}
	return id, true
}

package handler

import (
	"encoding/json"
	"net/http"

	"seven-oz-loyalty/internal/model"
	"seven-oz-loyalty/internal/service"

	"github.com/rs/zerolog"
)

// CodeHandler serves the display code and accepts claims.
type CodeHandler struct {
	service service.ClaimService
	logger  zerolog.Logger
}

// NewCodeHandler creates a new code handler.
func NewCodeHandler(service service.ClaimService, logger zerolog.Logger) *CodeHandler {
	return &CodeHandler{
		service: service,
		logger:  logger.With().Str("handler", "code").Logger(),
	}
}

// Current handles GET /api/customercode requests.
func (h *CodeHandler) Current(w http.ResponseWriter, r *http.Request) {
	code, err := h.service.CurrentCode(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, model.CodeResponse{Code: code})
}

// Claim handles POST /api/customercode/claim requests.
func (h *CodeHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req model.ClaimRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if _, err := h.service.Claim(r.Context(), req.ID, req.Code); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/service"
)

type ResidentHandler struct {
	residentService *service.ResidentService
	logger          *zap.SugaredLogger
}

func NewResidentHandler(residentService *service.ResidentService, logger *zap.SugaredLogger) *ResidentHandler {
	return &ResidentHandler{residentService: residentService, logger: logger}
}

func (h *ResidentHandler) List(w http.ResponseWriter, r *http.Request) {
	residents, err := h.residentService.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Errorw("list residents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, residents)
}

func (h *ResidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid resident ID")
		return
	}

	resident, err := h.residentService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrResidentNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Resident not found")
		} else {
			h.logger.Errorw("get resident failed", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, resident)
}

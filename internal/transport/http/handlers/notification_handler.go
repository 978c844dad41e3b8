package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/service"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notifService *service.NotificationService
	logger       *zap.SugaredLogger
}

func NewNotificationHandler(notifService *service.NotificationService, logger *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{notifService: notifService, logger: logger}
}

func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	notifications, err := h.notifService.ListUnread(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("list notifications failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	if err := h.notifService.MarkRead(r.Context(), id); err != nil {
		h.logger.Errorw("mark notification read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

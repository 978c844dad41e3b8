package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/service"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/transport/http/middleware"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/pkg/validator"
)

type ConversationHandler struct {
	convService *service.ConversationService
	logger      *zap.SugaredLogger
}

func NewConversationHandler(convService *service.ConversationService, logger *zap.SugaredLogger) *ConversationHandler {
	return &ConversationHandler{convService: convService, logger: logger}
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateConversationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateCreateConversation(input.Title, len(input.ParticipantIDs)+1, input.IsGroup); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	conv, err := h.convService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooFewParticipants):
			writeError(w, http.StatusBadRequest, "TOO_FEW_PARTICIPANTS", "At least one other participant is required")
		case errors.Is(err, service.ErrTitleRequired):
			writeError(w, http.StatusBadRequest, "TITLE_REQUIRED", "Group conversations require a title")
		case errors.Is(err, service.ErrResidentNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Resident not found")
		default:
			h.logger.Errorw("create conversation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convs, err := h.convService.List(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("list conversations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	conv, err := h.convService.Get(r.Context(), userID, convID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		default:
			h.logger.Errorw("get conversation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	if err := h.convService.MarkRead(r.Context(), userID, convID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		default:
			h.logger.Errorw("mark read failed", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

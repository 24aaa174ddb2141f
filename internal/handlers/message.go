package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
	"github.com/HammerMeetNail/birthdaysurprise/internal/services"
)

const maxMessageBodyBytes = 64 << 10

type MessageHandler struct {
	messageService services.MessageServiceInterface
}

func NewMessageHandler(messageService services.MessageServiceInterface) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBodyBytes)

	var params models.CreateMessageParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.messageService.Create(r.Context(), params)
	switch {
	case errors.Is(err, services.ErrMessageContentRequired):
		writeError(w, http.StatusBadRequest, "Message content is required")
		return
	case errors.Is(err, services.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, "Message content is too long")
		return
	case errors.Is(err, services.ErrSenderTooLong):
		writeError(w, http.StatusBadRequest, "Sender name is too long")
		return
	case err != nil:
		logging.Error("Error storing message", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

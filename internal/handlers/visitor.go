package handlers

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/services"
)

type VisitorHandler struct {
	visitorService services.VisitorServiceInterface
}

func NewVisitorHandler(visitorService services.VisitorServiceInterface) *VisitorHandler {
	return &VisitorHandler{visitorService: visitorService}
}

type CountdownStateResponse struct {
	Elapsed bool `json:"elapsed"`
}

func (h *VisitorHandler) GetCountdown(w http.ResponseWriter, r *http.Request) {
	elapsed, err := h.visitorService.CountdownElapsed(r.Context(), r.PathValue("id"))
	if errors.Is(err, services.ErrInvalidVisitorID) {
		writeError(w, http.StatusBadRequest, "Invalid visitor ID")
		return
	}
	if err != nil {
		// The flag is advisory; a cache outage just means the countdown shows again.
		logging.Warn("Error reading visitor state", map[string]interface{}{"error": err.Error()})
	}

	writeJSON(w, http.StatusOK, CountdownStateResponse{Elapsed: elapsed})
}

func (h *VisitorHandler) MarkCountdown(w http.ResponseWriter, r *http.Request) {
	err := h.visitorService.MarkCountdownElapsed(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, services.ErrInvalidVisitorID):
		writeError(w, http.StatusBadRequest, "Invalid visitor ID")
		return
	case errors.Is(err, services.ErrCountdownNotElapsed):
		writeError(w, http.StatusConflict, "Countdown has not finished yet")
		return
	case err != nil:
		logging.Error("Error storing visitor state", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, CountdownStateResponse{Elapsed: true})
}

func (h *VisitorHandler) ResetCountdown(w http.ResponseWriter, r *http.Request) {
	err := h.visitorService.Reset(r.Context(), r.PathValue("id"))
	if errors.Is(err, services.ErrInvalidVisitorID) {
		writeError(w, http.StatusBadRequest, "Invalid visitor ID")
		return
	}
	if err != nil {
		logging.Error("Error clearing visitor state", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

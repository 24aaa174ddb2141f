package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/birthdaysurprise/internal/services"
)

type ConfigHandler struct {
	provider services.SurpriseConfigProvider
}

func NewConfigHandler(provider services.SurpriseConfigProvider) *ConfigHandler {
	return &ConfigHandler{provider: provider}
}

// Get always answers 200; the provider substitutes the default document when
// no configured source is usable.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := h.provider.Get(r.Context())
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, cfg)
}

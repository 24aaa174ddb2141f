package handlers

import (
	"net/http"
	"sync"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
	"github.com/HammerMeetNail/birthdaysurprise/internal/services"
)

var renderSurprisePNG = services.RenderSurprisePNG

// OGImageHandler serves the link-preview image. Renders are memoized per
// document so a config change shows up on the next request.
type OGImageHandler struct {
	provider services.SurpriseConfigProvider

	mu       sync.Mutex
	cacheKey string
	pngBytes []byte
}

func NewOGImageHandler(provider services.SurpriseConfigProvider) *OGImageHandler {
	return &OGImageHandler{provider: provider}
}

func previewKey(cfg models.SurpriseConfig) string {
	key := cfg.RecipientName + "\x00" + cfg.TargetDate + "\x00" + cfg.BirthdayMessage
	for _, g := range cfg.Gifts {
		key += "\x00" + g.Label
	}
	return key
}

func (h *OGImageHandler) Default(w http.ResponseWriter, r *http.Request) {
	cfg := h.provider.Get(r.Context())
	key := previewKey(cfg)

	h.mu.Lock()
	if h.pngBytes == nil || h.cacheKey != key {
		data, err := renderSurprisePNG(cfg)
		if err != nil {
			h.mu.Unlock()
			http.Error(w, "Failed to render image", http.StatusInternalServerError)
			return
		}
		h.pngBytes = data
		h.cacheKey = key
	}
	data := h.pngBytes
	h.mu.Unlock()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

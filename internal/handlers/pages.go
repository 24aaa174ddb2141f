package handlers

import (
	"html/template"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
	"github.com/HammerMeetNail/birthdaysurprise/internal/services"
)

type PageHandler struct {
	templates *template.Template
	provider  services.SurpriseConfigProvider
}

func NewPageHandler(templatesDir string, provider services.SurpriseConfigProvider) (*PageHandler, error) {
	templates, err := template.ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		return nil, err
	}
	return &PageHandler{templates: templates, provider: provider}, nil
}

type PageData struct {
	Title         string
	Description   string
	RecipientName string
	BaseURL       string
	ImageURL      string
}

// Index serves a static greeting page whose meta tags carry the share
// preview for the current document.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	cfg := h.provider.Get(r.Context())
	baseURL := resolveBaseURL(r)
	data := PageData{
		Title:         models.Greeting(cfg.RecipientName),
		Description:   cfg.BirthdayMessage,
		RecipientName: cfg.RecipientName,
		BaseURL:       baseURL,
		ImageURL:      baseURL + "/og/default.png",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

func resolveBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if v := sanitizeProto(firstForwardedValue(r.Header.Get("X-Forwarded-Proto"))); v != "" {
		scheme = v
	}

	host := sanitizeHost(r.Host)
	if v := sanitizeHost(firstForwardedValue(r.Header.Get("X-Forwarded-Host"))); v != "" {
		host = v
	}

	if host == "" {
		host = "localhost"
	}
	return scheme + "://" + host
}

func firstForwardedValue(v string) string {
	if v == "" {
		return ""
	}
	parts := strings.Split(v, ",")
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}

func sanitizeProto(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "http":
		return "http"
	case "https":
		return "https"
	default:
		return ""
	}
}

func sanitizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.Contains(raw, "://") {
		return ""
	}
	if strings.ContainsAny(raw, " \t\r\n/\\?#") {
		return ""
	}
	if strings.Contains(raw, "@") {
		return ""
	}

	host := raw
	port := ""

	if strings.HasPrefix(raw, "[") {
		parsedHost, parsedPort, err := net.SplitHostPort(raw)
		if err != nil {
			if strings.HasSuffix(raw, "]") {
				trimmed := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
				if net.ParseIP(trimmed) != nil {
					return "[" + trimmed + "]"
				}
			}
			return ""
		}
		host, port = parsedHost, parsedPort
	} else if strings.Count(raw, ":") == 1 {
		parsedHost, parsedPort, err := net.SplitHostPort(raw)
		if err == nil {
			host, port = parsedHost, parsedPort
		} else {
			if net.ParseIP(raw) == nil {
				return ""
			}
			return raw
		}
	} else if strings.Contains(raw, ":") {
		if net.ParseIP(raw) != nil {
			return raw
		}
		return ""
	}

	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return ""
		}
	}

	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	hostLower := strings.ToLower(host)
	if net.ParseIP(hostLower) == nil && !isValidHostname(hostLower) {
		return ""
	}

	if port == "" {
		return hostLower
	}
	return net.JoinHostPort(hostLower, port)
}

func isValidHostname(host string) bool {
	if host == "localhost" {
		return true
	}
	if len(host) > 253 {
		return false
	}
	if strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return false
	}

	labels := strings.Split(host, ".")
	if len(labels) == 0 {
		return false
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
		if !isAlphaNum(label[0]) || !isAlphaNum(label[len(label)-1]) {
			return false
		}
		for i := 0; i < len(label); i++ {
			b := label[i]
			if isAlphaNum(b) || b == '-' {
				continue
			}
			return false
		}
	}
	return true
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// NotFound renders the terminal not-found page for unknown routes.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := h.templates.ExecuteTemplate(w, "404.html", nil); err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}

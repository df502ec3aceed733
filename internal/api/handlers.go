package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yegors/livescribe/internal/config"
	"github.com/yegors/livescribe/internal/translation"
	"github.com/yegors/livescribe/pkg/logger"
)

// maxTranslateTexts bounds one /api/translate request
const maxTranslateTexts = 100

// Handler contains the API handlers
type Handler struct {
	config    *config.Config
	provider  translation.Provider
	logger    *logger.Logger
	startTime time.Time
}

// NewHandler creates a new API handler. provider may be nil when no
// translation credentials are configured.
func NewHandler(config *config.Config, provider translation.Provider, logger *logger.Logger) *Handler {
	return &Handler{
		config:    config,
		provider:  provider,
		logger:    logger.Named("api-handler"),
		startTime: time.Now(),
	}
}

// GetHealth returns the health status of the server
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	response := map[string]any{
		"status":    "healthy",
		"timestamp": now.UTC().Format(time.RFC3339),
		"uptime":    now.Sub(h.startTime).Seconds(),
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the values the page needs to talk to the speech service.
// The response must never be cached.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")

	WriteJSON(w, http.StatusOK, h.config.ClientConfig())
}

// GetLanguages returns the supported translation targets
func (h *Handler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"default":   h.config.Translation.DefaultTargetLanguage,
		"languages": translation.SupportedLanguages(),
	}

	WriteJSON(w, http.StatusOK, response)
}

type translateRequest struct {
	Texts []string `json:"texts"`
	From  string   `json:"from"`
	To    string   `json:"to"`
}

// Translate batch-translates texts with the configured provider
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		WriteError(w, http.StatusServiceUnavailable, "Translation is not configured")
		return
	}

	var req translateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Texts) == 0 || len(req.Texts) > maxTranslateTexts {
		WriteError(w, http.StatusBadRequest, "texts must contain between 1 and 100 items")
		return
	}
	if !translation.IsSupported(req.To) {
		WriteError(w, http.StatusBadRequest, "Unsupported target language")
		return
	}
	if req.From == "" {
		req.From = h.config.Speech.Language
	}

	client := translation.NewClient(h.provider, h.logger)
	client.SetTargetLanguage(req.To)

	translations, err := client.BatchTranslate(r.Context(), req.Texts, req.From)
	if err != nil {
		h.logger.Warn("Batch translation failed",
			logger.Int("count", len(req.Texts)),
			logger.String("to", req.To),
			logger.Error(err))

		status := http.StatusBadGateway
		var te *translation.TranslationError
		if errors.As(err, &te) && te.StatusCode == http.StatusTooManyRequests {
			status = http.StatusTooManyRequests
		}
		WriteError(w, status, "Translation failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"from":         translation.ExtractLanguageCode(req.From),
		"to":           req.To,
		"translations": translations,
	})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error body with a timestamp
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Package handlers exposes the batch pipeline over HTTP: uploads, the record gallery,
// exports, viewport settings, the live preview and a websocket event stream.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/config"
	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/gorilla/websocket"
)

// uploadMemory is the part of a multipart upload kept in memory before spilling to disk.
const uploadMemory = 32 << 20

type Handler struct {
	controller    *pipeline.Controller
	logger        *slog.Logger
	maxUploadSize int64
	upgrader      websocket.Upgrader
	now           func() time.Time
}

// New creates a Handler serving the given controller.
//
// Parameters:
//   - controller: the pipeline the routes operate on
//   - options: functional options to configure the handler
//
// Returns:
//   - *Handler: the configured handler
func New(controller *pipeline.Controller, options ...HandlerOption) *Handler {
	h := &Handler{
		controller:    controller,
		logger:        slog.Default(),
		maxUploadSize: config.DefaultMaxUploadSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		now: time.Now,
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// HandlerOption is a functional option for configuring a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxUploadSize limits the body of an upload request.
func WithMaxUploadSize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadSize = n
		}
	}
}

// WithClock replaces the report timestamp source.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models", h.HandleModels)
	mux.HandleFunc("/api/models/", h.HandleModelDetail)
	mux.HandleFunc("/api/export/", h.HandleExport)
	mux.HandleFunc("/api/settings", h.HandleSettings)
	mux.HandleFunc("/api/progress", h.HandleProgress)
	mux.HandleFunc("/api/preview", h.HandlePreview)
	mux.HandleFunc("/ws", h.HandleEvents)
	mux.HandleFunc("/healthcheck", h.HandleHealthcheck)
	mux.HandleFunc("/", h.HandleStatic)
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		h.logger.Error(message)
	} else {
		h.logger.Debug(message, "code", code)
	}
	http.Error(w, message, code)
}

// Record helpers
func (h *Handler) getRecordOrError(w http.ResponseWriter, id string) (pipeline.ModelRecord, bool) {
	rec, exists := h.controller.Record(id)
	if !exists {
		h.writeError(w, "Model not found", http.StatusNotFound)
		return rec, false
	}
	return rec, true
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Error("Unable to write healthcheck", "err", err)
	}
}

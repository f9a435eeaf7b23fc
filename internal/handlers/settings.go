package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"

	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
)

type progressResponse struct {
	Progress    int    `json:"progress"`
	ActiveModel string `json:"active_model,omitempty"`
}

func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, h.controller.Viewport())
	case http.MethodPut:
		// start from the current values so partial updates keep the rest
		vp := h.controller.Viewport()
		if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.controller.SetViewport(vp); err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Info("Viewport updated", "background", vp.Background, "opacity", vp.Opacity, "width", vp.Width, "height", vp.Height)
		h.writeJSON(w, vp)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := progressResponse{Progress: h.controller.Progress()}
	if s := h.controller.ActiveSession(); s != nil {
		resp.ActiveModel = s.ModelID()
	}
	h.writeJSON(w, resp)
}

// HandlePreview serves the latest frame of the active session's live render loop.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	frame := activeFrame(h.controller.ActiveSession())
	if frame == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		h.writeError(w, "Failed to encode preview: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("Unable to write preview", "err", err)
	}
}

func activeFrame(s *pipeline.RenderSession) *image.RGBA {
	if s == nil {
		return nil
	}
	return s.Snapshot()
}

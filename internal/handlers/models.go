package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Carmen-Shannon/oxy-shot/internal/export"
	"github.com/Carmen-Shannon/oxy-shot/internal/intake"
	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
)

// uploadResponse answers an upload.
type uploadResponse struct {
	Models  []pipeline.ModelRecord `json:"models"`
	Queued  int                    `json:"queued"`
	Ignored int                    `json:"ignored"`
}

func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, h.controller.Records())
	case http.MethodPost:
		h.handleUpload(w, r)
	case http.MethodDelete:
		h.controller.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleModelDetail(w http.ResponseWriter, r *http.Request) {
	id, rest, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/api/models/"), "/")
	if id == "" {
		h.writeError(w, "Model not found", http.StatusNotFound)
		return
	}

	switch rest {
	case "":
	case "screenshot":
		h.handleScreenshot(w, r, id)
		return
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, ok := h.getRecordOrError(w, id)
		if !ok {
			return
		}
		h.writeJSON(w, rec)
	case http.MethodDelete:
		if !h.controller.Remove(id) {
			h.writeError(w, "Model not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleScreenshot(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec, ok := h.getRecordOrError(w, id)
	if !ok {
		return
	}
	if !rec.HasScreenshot() {
		h.writeError(w, "Screenshot not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", attachment(export.ScreenshotName(rec.Name)))
	if _, err := w.Write(rec.Screenshot.PNG); err != nil {
		h.logger.Error("Unable to write screenshot", "model", id, "err", err)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, fmt.Sprintf("Upload too large (max %s)", export.FormatSize(h.maxUploadSize)), http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("Unable to remove upload temp files", "err", err)
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		h.writeError(w, "No files in upload", http.StatusBadRequest)
		return
	}

	files := make([]intake.File, 0, len(headers))
	for _, header := range headers {
		f, err := readPart(header)
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusBadRequest)
			return
		}
		files = append(files, f)
	}

	created := h.controller.Enqueue(files...)
	h.logger.Info("Upload received", "files", len(files), "queued", len(created))
	h.writeJSONStatus(w, http.StatusAccepted, uploadResponse{
		Models:  created,
		Queued:  len(created),
		Ignored: len(files) - len(created),
	})
}

// readPart loads one uploaded file. Parts without a useful declared type are sniffed.
func readPart(header *multipart.FileHeader) (intake.File, error) {
	file, err := header.Open()
	if err != nil {
		return intake.File{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return intake.File{}, err
	}
	return intake.File{
		Name:      header.Filename,
		MediaType: intake.ResolveMediaType(header.Header.Get("Content-Type"), data),
		Data:      data,
	}, nil
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

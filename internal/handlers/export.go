package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/Carmen-Shannon/oxy-shot/internal/export"
)

const (
	reportName    = "models_report.html"
	reportPDFName = "models_report.pdf"
)

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records := h.controller.Records()
	var buf bytes.Buffer
	switch strings.TrimPrefix(r.URL.Path, "/api/export/") {
	case "zip":
		if len(export.Captured(records)) == 0 {
			h.writeError(w, "No screenshots available", http.StatusNotFound)
			return
		}
		if _, err := export.WriteZip(&buf, records); err != nil {
			h.writeError(w, "Failed to build archive: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", attachment(export.ArchiveName))
	case "report":
		if err := export.WriteHTMLReport(&buf, records, h.now()); err != nil {
			h.writeError(w, "Failed to build report: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Has("download") {
			w.Header().Set("Content-Disposition", attachment(reportName))
		}
	case "report.pdf":
		if err := export.WritePDFReport(&buf, records, h.now()); err != nil {
			h.writeError(w, "Failed to build report: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", attachment(reportPDFName))
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("Unable to write export", "path", r.URL.Path, "err", err)
	}
}

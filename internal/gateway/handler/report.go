package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"storyboarder/internal/gateway/session"
	"storyboarder/internal/report"
	t "storyboarder/internal/types"
)

// ReportHandler serves the printable HTML report of a session. A single
// storyboard can be exported from the storyboard stage on; the full report
// needs the final stage.
type ReportHandler struct {
	sessions SessionSource
	logger   *slog.Logger
}

func NewReportHandler(sessions SessionSource, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{sessions: sessions, logger: logger}
}

func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	sessionID := strings.TrimSpace(q.Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	index := report.All
	if raw := strings.TrimSpace(q.Get("storyboard")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "storyboard must be a non-negative integer", http.StatusBadRequest)
			return
		}
		index = n
	}

	s, err := h.sessions.Get(r.Context(), sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snap := s.Snapshot()
	need := t.StageFinal
	if index != report.All {
		need = t.StageStoryboard
	}
	if snap.Stage < need {
		http.Error(w, fmt.Sprintf("report not available in stage %s", snap.StageName), http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, snap.Project, index); err != nil {
		if errors.Is(err, report.ErrStoryboardIndex) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("report render failed", "session_id", sessionID, "error", err)
		http.Error(w, "report render failed", http.StatusInternalServerError)
		return
	}
	name := "storyboard-report.html"
	if index != report.All {
		name = fmt.Sprintf("storyboard-%d.html", index+1)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(buf.Bytes())
}

package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"storyboarder/internal/types"
)

func getReport(t *testing.T, h *ReportHandler, query string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleReport(rec, httptest.NewRequest(http.MethodGet, "/report?"+query, nil))
	return rec.Result()
}

func TestReportHandler_Full(t *testing.T) {
	reg := newRegistry(t)
	s := driveTo(t, reg, types.StageFinal)
	h := NewReportHandler(reg, quiet)

	resp := getReport(t, h, "session_id="+s.ID())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "storyboard-report.html")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Tăng đăng ký")
	require.Contains(t, string(body), "No Image")
}

func TestReportHandler_SingleStoryboardFromStoryboardStage(t *testing.T) {
	reg := newRegistry(t)
	s := driveTo(t, reg, types.StageStoryboard)
	h := NewReportHandler(reg, quiet)

	resp := getReport(t, h, "session_id="+s.ID()+"&storyboard=0")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "storyboard-1.html")

	resp = getReport(t, h, "session_id="+s.ID())
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = getReport(t, h, "session_id="+s.ID()+"&storyboard=4")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportHandler_BadRequests(t *testing.T) {
	reg := newRegistry(t)
	h := NewReportHandler(reg, quiet)

	require.Equal(t, http.StatusBadRequest, getReport(t, h, "").StatusCode)
	require.Equal(t, http.StatusNotFound, getReport(t, h, "session_id=missing").StatusCode)
	require.Equal(t, http.StatusBadRequest, getReport(t, h, "session_id=x&storyboard=abc").StatusCode)

	s := driveTo(t, reg, types.StageSetup)
	require.Equal(t, http.StatusConflict, getReport(t, h, "session_id="+s.ID()+"&storyboard=0").StatusCode)

	rec := httptest.NewRecorder()
	h.HandleReport(rec, httptest.NewRequest(http.MethodPost, "/report?session_id="+s.ID(), strings.NewReader("")))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/carspecworker/internal/orchestrator"
	"sjsage522/carspecworker/logger"
)

type mockCrawler struct {
	report   *orchestrator.Report
	err      error
	state    orchestrator.State
	progress orchestrator.AmountSummary
	ctxErr   error
}

func (m *mockCrawler) Start(ctx context.Context) (*orchestrator.Report, error) {
	m.ctxErr = ctx.Err()
	return m.report, m.err
}

func (m *mockCrawler) State() orchestrator.State { return m.state }

func (m *mockCrawler) Progress() orchestrator.AmountSummary { return m.progress }

func newTestRouter(c Crawler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(c)
	h.log = logger.Nop()
	return NewRouter(h)
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := serve(newTestRouter(&mockCrawler{}), http.MethodGet, "/test")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello world!", w.Body.String())
}

func TestScrapeSuccess(t *testing.T) {
	report := orchestrator.NewReport(2, time.Unix(0, 0))
	report.MergeChunk(nil, []orchestrator.Counts{{Models: 1, Generations: 1, Cars: 3}})
	report.Finalize(nil, time.Unix(60, 0))

	crawler := &mockCrawler{report: report}
	w := serve(newTestRouter(crawler), http.MethodPost, "/scrape")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, crawler.ctxErr)

	var summary orchestrator.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, orchestrator.AmountSummary{Brands: 2, Models: 1, Generations: 1, Cars: 3}, summary.AmountSummary)
	assert.Equal(t, "Successfully written data to file", summary.Message)
	assert.Equal(t, "1m0s", summary.Duration)
}

func TestScrapeAlreadyRunning(t *testing.T) {
	w := serve(newTestRouter(&mockCrawler{err: orchestrator.ErrAlreadyRunning}), http.MethodPost, "/scrape")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already running")
}

func TestScrapeFailure(t *testing.T) {
	w := serve(newTestRouter(&mockCrawler{err: errors.New("brand index: boom")}), http.MethodPost, "/scrape")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "brand index: boom", resp.Error)
}

func TestStatus(t *testing.T) {
	crawler := &mockCrawler{
		state:    orchestrator.StateRunning,
		progress: orchestrator.AmountSummary{Brands: 10, Models: 4},
	}
	w := serve(newTestRouter(crawler), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.State)
	assert.Equal(t, 4, resp.Progress.Models)
}

func TestCars(t *testing.T) {
	w := serve(newTestRouter(&mockCrawler{}), http.MethodGet, "/cars")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Coming soon", w.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	w := serve(newTestRouter(&mockCrawler{}), http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

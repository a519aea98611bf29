package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sjsage522/carspecworker/internal/orchestrator"
	"sjsage522/carspecworker/logger"
)

// Crawler is the part of the orchestrator the HTTP surface drives
type Crawler interface {
	Start(ctx context.Context) (*orchestrator.Report, error)
	State() orchestrator.State
	Progress() orchestrator.AmountSummary
}

// Handler serves the crawl trigger routes
type Handler struct {
	crawler Crawler
	log     *logger.Logger
}

// NewHandler creates a Handler
func NewHandler(c Crawler) *Handler {
	return &Handler{crawler: c, log: logger.ForAPI()}
}

// StatusResponse describes the orchestrator state
type StatusResponse struct {
	State    string                     `json:"state"`
	Progress orchestrator.AmountSummary `json:"progress"`
}

// ErrorResponse is returned when a crawl cannot be started or fails
type ErrorResponse struct {
	Error string `json:"error"`
}

// Ping answers the liveness probe
func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "Hello world!")
}

// Scrape runs a crawl and responds with its summary once it finishes.
// The crawl is not tied to the client connection.
func (h *Handler) Scrape(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())

	report, err := h.crawler.Start(ctx)
	if errors.Is(err, orchestrator.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Scrape request failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, report.Summary())
}

// Status reports the lifecycle state and live counters
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		State:    h.crawler.State().String(),
		Progress: h.crawler.Progress(),
	})
}

// Cars is a placeholder for serving the collected catalog
func (h *Handler) Cars(c *gin.Context) {
	c.String(http.StatusOK, "Coming soon")
}

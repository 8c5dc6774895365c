// Package http provides read-only HTTP handlers for inspecting sweeps and their
// run journal. Sweeps are created and executed through the CLI; the API exists so
// a long sweep can be watched without shell access to the training host.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/seedsweep/internal/httputil"
	"github.com/allisson/seedsweep/internal/sweep/http/dto"
	sweepUseCase "github.com/allisson/seedsweep/internal/sweep/usecase"
)

// SweepHandler handles HTTP requests for sweep status queries.
type SweepHandler struct {
	useCase sweepUseCase.UseCase
	logger  *slog.Logger
}

// NewSweepHandler creates a new sweep handler.
func NewSweepHandler(useCase sweepUseCase.UseCase, logger *slog.Logger) *SweepHandler {
	return &SweepHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// ListHandler lists sweeps, newest first.
// GET /v1/sweeps?offset=N&limit=N
func (h *SweepHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	sweeps, err := h.useCase.ListSweeps(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSweepsToListResponse(sweeps))
}

// GetHandler retrieves a single sweep by ID.
// GET /v1/sweeps/:id
func (h *SweepHandler) GetHandler(c *gin.Context) {
	id, err := parseSweepID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	sweep, err := h.useCase.GetSweep(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSweepToResponse(sweep))
}

// ListRunsHandler lists a sweep's runs ordered by seed.
// GET /v1/sweeps/:id/runs?offset=N&limit=N
func (h *SweepHandler) ListRunsHandler(c *gin.Context) {
	id, err := parseSweepID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	runs, err := h.useCase.ListRuns(c.Request.Context(), id, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRunsToListResponse(runs))
}

// parseSweepID extracts and validates the sweep ID path parameter.
func parseSweepID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid sweep id: must be a UUID")
	}
	return id, nil
}

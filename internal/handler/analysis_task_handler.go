package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/middleware"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/service"
	"github.com/jengzang/geolife-backend-go/pkg/response"
)

// AnalysisTaskHandler handles HTTP requests for analyses and their tasks
type AnalysisTaskHandler struct {
	service *service.AnalysisTaskService
}

// NewAnalysisTaskHandler creates a new analysis task handler
func NewAnalysisTaskHandler(service *service.AnalysisTaskService) *AnalysisTaskHandler {
	return &AnalysisTaskHandler{service: service}
}

// ListAnalyzers lists the registered analyzers
// GET /api/v1/analyses
func (h *AnalysisTaskHandler) ListAnalyzers(c *gin.Context) {
	response.Success(c, h.service.ListAnalyzers())
}

// RunAnalysis runs an analyzer with the query string as parameters
// GET /api/v1/analyses/:name
func (h *AnalysisTaskHandler) RunAnalysis(c *gin.Context) {
	params := analysis.Params{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[len(values)-1]
		}
	}

	// Get user from context (set by auth middleware)
	createdBy := c.GetString(middleware.SubjectKey)
	if createdBy == "" {
		createdBy = "api"
	}

	run, err := h.service.Run(c.Request.Context(), c.Param("name"), params, createdBy)
	switch {
	case errors.Is(err, analysis.ErrUnknownAnalyzer):
		response.NotFound(c, err.Error())
	case errors.Is(err, analysis.ErrInvalidParam):
		response.BadRequest(c, err.Error())
	case err != nil:
		response.InternalError(c, err.Error())
	default:
		response.Success(c, run)
	}
}

// GetTask retrieves a task by ID
// GET /api/v1/tasks/:id
func (h *AnalysisTaskHandler) GetTask(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, task)
}

// ListTasks retrieves tasks, newest first
// GET /api/v1/tasks
func (h *AnalysisTaskHandler) ListTasks(c *gin.Context) {
	analyzer := c.Query("analyzer")
	status := c.Query("status")
	limitStr := c.DefaultQuery("limit", "20")
	offsetStr := c.DefaultQuery("offset", "0")

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 20
	}

	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		offset = 0
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), analyzer, status, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}

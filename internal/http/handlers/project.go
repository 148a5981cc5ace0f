package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicworks/sitelore-backend/internal/http/response"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/services"
)

type ProjectHandler struct {
	log *logger.Logger
	svc services.ProjectService
}

func NewProjectHandler(log *logger.Logger, svc services.ProjectService) *ProjectHandler {
	return &ProjectHandler{log: log.With("handler", "ProjectHandler"), svc: svc}
}

type createProjectRequest struct {
	Name        string `json:"name"`
	ProjectType string `json:"project_type"`
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	p, err := h.svc.Create(c.Request.Context(), req.Name, req.ProjectType)
	if err != nil {
		if errors.Is(err, services.ErrInvalidProject) {
			response.RespondError(c, http.StatusBadRequest, "invalid_project", err.Error())
			return
		}
		h.log.Error("Failed to create project", "name", req.Name, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to create project")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list projects", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to list projects")
		return
	}
	response.RespondOK(c, gin.H{"projects": projects})
}

// GET /api/projects/:name
func (h *ProjectHandler) Get(c *gin.Context) {
	name := c.Param("name")
	p, err := h.svc.GetByName(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", "project not found")
			return
		}
		h.log.Error("Failed to get project", "name", name, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to get project")
		return
	}
	response.RespondOK(c, p)
}

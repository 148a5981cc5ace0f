package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/civicworks/sitelore-backend/internal/http/response"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/services"
	"github.com/civicworks/sitelore-backend/internal/types"
)

type LessonHandler struct {
	log      *logger.Logger
	projects services.ProjectService
	store    services.LessonStoreService
	merge    services.LessonMergeService
}

func NewLessonHandler(
	log *logger.Logger,
	projects services.ProjectService,
	store services.LessonStoreService,
	merge services.LessonMergeService,
) *LessonHandler {
	return &LessonHandler{
		log:      log.With("handler", "LessonHandler"),
		projects: projects,
		store:    store,
		merge:    merge,
	}
}

type extractRequest struct {
	ProjectName string `json:"project_name"`
	Filename    string `json:"filename"`
	Content     string `json:"content"`
}

// POST /api/lessons/extract
//
// Accepts the document and returns 202; extraction and merging run in the
// background since a large document can hold the LLM for minutes.
func (h *LessonHandler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "empty document content")
		return
	}
	if req.Filename == "" {
		req.Filename = "upload.txt"
	}

	project, err := h.projects.GetByName(c.Request.Context(), req.ProjectName)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", "project not found")
			return
		}
		h.log.Error("Failed to resolve project", "project", req.ProjectName, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to resolve project")
		return
	}

	go func() {
		ctx := context.Background()
		if err := h.merge.ProcessDocument(ctx, req.Content, req.Filename, project.Name, project.ProjectType); err != nil {
			h.log.Error("Document processing failed",
				"project", project.Name,
				"filename", req.Filename,
				"error", err,
			)
		}
	}()

	response.RespondAccepted(c, gin.H{
		"message":      "document accepted for processing",
		"project_name": project.Name,
		"filename":     req.Filename,
	})
}

// GET /api/lessons/:scope/:key
func (h *LessonHandler) List(c *gin.Context) {
	scope := types.LessonScope(c.Param("scope"))
	if !scope.Valid() {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "scope must be project or project-type")
		return
	}
	key := c.Param("key")

	lessons, err := h.store.LoadCollection(c.Request.Context(), scope, key)
	if err != nil {
		h.log.Error("Failed to load lessons", "scope", scope, "key", key, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to load lessons")
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicworks/sitelore-backend/internal/http/response"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/services"
)

type KnowledgeHandler struct {
	log *logger.Logger
	svc services.KnowledgeQueryService
}

func NewKnowledgeHandler(log *logger.Logger, svc services.KnowledgeQueryService) *KnowledgeHandler {
	return &KnowledgeHandler{log: log.With("handler", "KnowledgeHandler"), svc: svc}
}

type askRequest struct {
	Question string `json:"question"`
}

// POST /api/knowledge/:projectType/query
func (h *KnowledgeHandler) Ask(c *gin.Context) {
	projectType := c.Param("projectType")

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	answer, err := h.svc.Ask(c.Request.Context(), projectType, req.Question)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuestion) {
			response.RespondError(c, http.StatusBadRequest, "bad_request", "question must not be empty")
			return
		}
		h.log.Error("Knowledge query failed", "project_type", projectType, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to answer question")
		return
	}
	response.RespondOK(c, answer)
}

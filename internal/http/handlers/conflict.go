package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicworks/sitelore-backend/internal/http/response"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/services"
	"github.com/civicworks/sitelore-backend/internal/types"
)

type ConflictHandler struct {
	log *logger.Logger
	svc services.ConflictResolutionService
}

func NewConflictHandler(log *logger.Logger, svc services.ConflictResolutionService) *ConflictHandler {
	return &ConflictHandler{log: log.With("handler", "ConflictHandler"), svc: svc}
}

// GET /api/conflicts/:scope/:key
func (h *ConflictHandler) ListPending(c *gin.Context) {
	scope := types.LessonScope(c.Param("scope"))
	if !scope.Valid() {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "scope must be project or project-type")
		return
	}
	key := c.Param("key")

	pending, err := h.svc.ListPending(c.Request.Context(), scope, key)
	if err != nil {
		h.log.Error("Failed to list conflicts", "scope", scope, "key", key, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to list conflicts")
		return
	}
	response.RespondOK(c, gin.H{"conflicts": pending})
}

type resolveRequest struct {
	Decision types.ConflictDecision `json:"decision"`
}

// POST /api/conflicts/:scope/:key/:id/resolve
func (h *ConflictHandler) Resolve(c *gin.Context) {
	scope := types.LessonScope(c.Param("scope"))
	if !scope.Valid() {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "scope must be project or project-type")
		return
	}
	key := c.Param("key")
	conflictID := c.Param("id")

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	err := h.svc.Resolve(c.Request.Context(), scope, key, conflictID, req.Decision)
	switch {
	case err == nil:
		response.RespondOK(c, gin.H{"message": "conflict resolved", "decision": req.Decision})
	case errors.Is(err, services.ErrInvalidDecision):
		response.RespondError(c, http.StatusBadRequest, "invalid_decision", err.Error())
	case errors.Is(err, services.ErrAlreadyResolved):
		response.RespondError(c, http.StatusConflict, "already_resolved", "conflict already resolved")
	case errors.Is(err, services.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", "conflict not found")
	default:
		h.log.Error("Failed to resolve conflict", "scope", scope, "key", key, "conflict_id", conflictID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to resolve conflict")
	}
}

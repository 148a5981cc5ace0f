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

type ChecklistHandler struct {
	log     *logger.Logger
	global  services.GlobalChecklistService
	project services.ProjectChecklistService
	sync    services.ChecklistSyncService
}

func NewChecklistHandler(
	log *logger.Logger,
	global services.GlobalChecklistService,
	project services.ProjectChecklistService,
	sync services.ChecklistSyncService,
) *ChecklistHandler {
	return &ChecklistHandler{
		log:     log.With("handler", "ChecklistHandler"),
		global:  global,
		project: project,
		sync:    sync,
	}
}

// GET /api/checklists/global/:type
func (h *ChecklistHandler) GetGlobal(c *gin.Context) {
	checklistType := types.ChecklistType(c.Param("type"))
	tasks, err := h.global.Get(c.Request.Context(), checklistType)
	if err != nil {
		if errors.Is(err, services.ErrInvalidChecklist) {
			response.RespondError(c, http.StatusBadRequest, "bad_request", "checklist type must be design or construction")
			return
		}
		h.log.Error("Failed to load global checklist", "checklist_type", checklistType, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to load checklist")
		return
	}
	response.RespondOK(c, gin.H{"tasks": tasks})
}

type replaceChecklistRequest struct {
	Tasks []types.GlobalChecklistTask `json:"tasks"`
}

// PUT /api/checklists/global/:type
func (h *ChecklistHandler) ReplaceGlobal(c *gin.Context) {
	checklistType := types.ChecklistType(c.Param("type"))
	var req replaceChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := h.global.Replace(c.Request.Context(), checklistType, req.Tasks); err != nil {
		if errors.Is(err, services.ErrInvalidChecklist) {
			response.RespondError(c, http.StatusBadRequest, "invalid_checklist", err.Error())
			return
		}
		h.log.Error("Failed to replace global checklist", "checklist_type", checklistType, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to replace checklist")
		return
	}
	response.RespondOK(c, gin.H{"message": "checklist replaced", "tasks": len(req.Tasks)})
}

// POST /api/checklists/sync
func (h *ChecklistHandler) Sync(c *gin.Context) {
	summary, err := h.sync.Sync(c.Request.Context())
	if err != nil {
		h.log.Error("Checklist sync failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "checklist sync failed")
		return
	}
	response.RespondOK(c, summary)
}

// GET /api/projects/:name/checklists/:type
func (h *ChecklistHandler) GetProjectChecklist(c *gin.Context) {
	projectName := c.Param("name")
	checklistType := types.ChecklistType(c.Param("type"))
	items, err := h.project.Get(c.Request.Context(), projectName, checklistType)
	if err != nil {
		if errors.Is(err, services.ErrInvalidChecklist) {
			response.RespondError(c, http.StatusBadRequest, "bad_request", "checklist type must be design or construction")
			return
		}
		h.log.Error("Failed to load project checklist", "project", projectName, "checklist_type", checklistType, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to load checklist")
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

type updateTaskStatusRequest struct {
	Status     types.TaskStatus `json:"status"`
	ActualDate string           `json:"actual_date"`
}

// PATCH /api/projects/:name/checklists/:type/tasks/:taskId
func (h *ChecklistHandler) UpdateTaskStatus(c *gin.Context) {
	projectName := c.Param("name")
	checklistType := types.ChecklistType(c.Param("type"))
	taskID := c.Param("taskId")

	var req updateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	err := h.project.UpdateTaskStatus(c.Request.Context(), projectName, checklistType, taskID, req.Status, req.ActualDate)
	switch {
	case err == nil:
		response.RespondOK(c, gin.H{"message": "task updated", "task_id": taskID, "status": req.Status})
	case errors.Is(err, services.ErrInvalidChecklist):
		response.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, services.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", "task not found")
	default:
		h.log.Error("Failed to update task", "project", projectName, "task_id", taskID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "failed to update task")
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/repos"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// ProjectChecklistService reads and updates a single project's copy of the
// checklists. Status changes come from people, never from sync.
type ProjectChecklistService interface {
	Get(ctx context.Context, projectName string, checklistType types.ChecklistType) ([]types.ProjectChecklistItem, error)
	UpdateTaskStatus(ctx context.Context, projectName string, checklistType types.ChecklistType, taskID string, status types.TaskStatus, actualDate string) error
}

type projectChecklistService struct {
	log   *logger.Logger
	items repos.ChecklistItemRepo
}

func NewProjectChecklistService(log *logger.Logger, items repos.ChecklistItemRepo) ProjectChecklistService {
	return &projectChecklistService{
		log:   log.With("service", "ProjectChecklistService"),
		items: items,
	}
}

func (s *projectChecklistService) Get(ctx context.Context, projectName string, checklistType types.ChecklistType) ([]types.ProjectChecklistItem, error) {
	if !checklistType.Valid() {
		return nil, fmt.Errorf("%w: checklist type %q", ErrInvalidChecklist, checklistType)
	}
	items, err := s.items.ListByProjectAndType(ctx, projectName, checklistType)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return types.CompareTaskIDs(items[i].TaskID, items[j].TaskID) < 0
	})
	return items, nil
}

func (s *projectChecklistService) UpdateTaskStatus(ctx context.Context, projectName string, checklistType types.ChecklistType, taskID string, status types.TaskStatus, actualDate string) error {
	if !checklistType.Valid() {
		return fmt.Errorf("%w: checklist type %q", ErrInvalidChecklist, checklistType)
	}
	if status != types.TaskNotStarted && status != types.TaskCompleted {
		return fmt.Errorf("%w: status %q", ErrInvalidChecklist, status)
	}
	if status == types.TaskCompleted && actualDate == "" {
		actualDate = time.Now().UTC().Format("2006-01-02")
	}
	err := s.items.UpdateStatus(ctx, projectName, checklistType, taskID, status, actualDate)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
		}
		return err
	}
	s.log.Info("Updated task status",
		"project", projectName,
		"checklist_type", checklistType,
		"task_id", taskID,
		"status", status,
	)
	return nil
}

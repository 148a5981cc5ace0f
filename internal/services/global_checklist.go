package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/repos"
	"github.com/civicworks/sitelore-backend/internal/types"
)

var ErrInvalidChecklist = errors.New("invalid checklist")

// GlobalChecklistService owns the shared template checklists. Replace is a
// full PUT: the submitted tasks become the template for that type.
type GlobalChecklistService interface {
	Get(ctx context.Context, checklistType types.ChecklistType) ([]types.GlobalChecklistTask, error)
	Replace(ctx context.Context, checklistType types.ChecklistType, tasks []types.GlobalChecklistTask) error
}

type globalChecklistService struct {
	log   *logger.Logger
	tasks repos.GlobalTaskRepo
}

func NewGlobalChecklistService(log *logger.Logger, tasks repos.GlobalTaskRepo) GlobalChecklistService {
	return &globalChecklistService{
		log:   log.With("service", "GlobalChecklistService"),
		tasks: tasks,
	}
}

func (s *globalChecklistService) Get(ctx context.Context, checklistType types.ChecklistType) ([]types.GlobalChecklistTask, error) {
	if !checklistType.Valid() {
		return nil, fmt.Errorf("%w: checklist type %q", ErrInvalidChecklist, checklistType)
	}
	tasks, err := s.tasks.ListByType(ctx, checklistType)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return types.CompareTaskIDs(tasks[i].TaskID, tasks[j].TaskID) < 0
	})
	return tasks, nil
}

func (s *globalChecklistService) Replace(ctx context.Context, checklistType types.ChecklistType, tasks []types.GlobalChecklistTask) error {
	if !checklistType.Valid() {
		return fmt.Errorf("%w: checklist type %q", ErrInvalidChecklist, checklistType)
	}
	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		id := strings.TrimSpace(tasks[i].TaskID)
		if id == "" {
			return fmt.Errorf("%w: task %d has empty task_id", ErrInvalidChecklist, i)
		}
		if strings.TrimSpace(tasks[i].Description) == "" {
			return fmt.Errorf("%w: task %q has empty description", ErrInvalidChecklist, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate task_id %q", ErrInvalidChecklist, id)
		}
		seen[id] = true
		tasks[i].TaskID = id
	}
	if err := s.tasks.ReplaceForType(ctx, checklistType, tasks); err != nil {
		return err
	}
	s.log.Info("Replaced global checklist", "checklist_type", checklistType, "tasks", len(tasks))
	return nil
}

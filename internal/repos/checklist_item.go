package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// WriteBatchSize matches the underlying store's per-call write limit.
const WriteBatchSize = 25

type ChecklistItemRepo interface {
	ListByProject(ctx context.Context, projectName string) ([]types.ProjectChecklistItem, error)
	ListByProjectAndType(ctx context.Context, projectName string, checklistType types.ChecklistType) ([]types.ProjectChecklistItem, error)
	Get(ctx context.Context, projectName string, checklistType types.ChecklistType, taskID string) (*types.ProjectChecklistItem, error)
	// BatchPut upserts items on (project_name, checklist_type, task_id),
	// chunked at WriteBatchSize per call.
	BatchPut(ctx context.Context, items []types.ProjectChecklistItem) error
	// BatchDelete removes items by primary key, chunked at WriteBatchSize.
	BatchDelete(ctx context.Context, items []types.ProjectChecklistItem) error
	UpdateStatus(ctx context.Context, projectName string, checklistType types.ChecklistType, taskID string, status types.TaskStatus, actualDate string) error
}

type checklistItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChecklistItemRepo(db *gorm.DB, baseLog *logger.Logger) ChecklistItemRepo {
	return &checklistItemRepo{db: db, log: baseLog.With("repo", "ChecklistItemRepo")}
}

func (r *checklistItemRepo) ListByProject(ctx context.Context, projectName string) ([]types.ProjectChecklistItem, error) {
	var items []types.ProjectChecklistItem
	err := r.db.WithContext(ctx).
		Where("project_name = ?", projectName).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *checklistItemRepo) ListByProjectAndType(ctx context.Context, projectName string, checklistType types.ChecklistType) ([]types.ProjectChecklistItem, error) {
	var items []types.ProjectChecklistItem
	err := r.db.WithContext(ctx).
		Where("project_name = ? AND checklist_type = ?", projectName, checklistType).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *checklistItemRepo) Get(ctx context.Context, projectName string, checklistType types.ChecklistType, taskID string) (*types.ProjectChecklistItem, error) {
	var item types.ProjectChecklistItem
	err := r.db.WithContext(ctx).
		Where("project_name = ? AND checklist_type = ? AND task_id = ?", projectName, checklistType, taskID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *checklistItemRepo) BatchPut(ctx context.Context, items []types.ProjectChecklistItem) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
		items[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "project_name"}, {Name: "checklist_type"}, {Name: "task_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "required", "projected_date", "notes",
				"status", "completed_date", "actual_date", "updated_at",
			}),
		}).
		CreateInBatches(items, WriteBatchSize).Error
}

func (r *checklistItemRepo) BatchDelete(ctx context.Context, items []types.ProjectChecklistItem) error {
	for start := 0; start < len(items); start += WriteBatchSize {
		end := start + WriteBatchSize
		if end > len(items) {
			end = len(items)
		}
		ids := make([]uuid.UUID, 0, end-start)
		for _, it := range items[start:end] {
			ids = append(ids, it.ID)
		}
		if err := r.db.WithContext(ctx).
			Where("id IN ?", ids).
			Delete(&types.ProjectChecklistItem{}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *checklistItemRepo) UpdateStatus(ctx context.Context, projectName string, checklistType types.ChecklistType, taskID string, status types.TaskStatus, actualDate string) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if status == types.TaskCompleted {
		completed := actualDate
		if completed == "" {
			completed = time.Now().UTC().Format(time.RFC3339)
		}
		updates["completed_date"] = completed
		updates["actual_date"] = actualDate
	} else {
		updates["completed_date"] = ""
		updates["actual_date"] = ""
	}
	res := r.db.WithContext(ctx).
		Model(&types.ProjectChecklistItem{}).
		Where("project_name = ? AND checklist_type = ? AND task_id = ?", projectName, checklistType, taskID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/types"
)

type GlobalTaskRepo interface {
	ListByType(ctx context.Context, checklistType types.ChecklistType) ([]types.GlobalChecklistTask, error)
	ListAll(ctx context.Context) ([]types.GlobalChecklistTask, error)
	// ReplaceForType swaps the entire template for one checklist type; the
	// submitted tasks become the template (PUT full-replace semantics).
	ReplaceForType(ctx context.Context, checklistType types.ChecklistType, tasks []types.GlobalChecklistTask) error
}

type globalTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGlobalTaskRepo(db *gorm.DB, baseLog *logger.Logger) GlobalTaskRepo {
	return &globalTaskRepo{db: db, log: baseLog.With("repo", "GlobalTaskRepo")}
}

func (r *globalTaskRepo) ListByType(ctx context.Context, checklistType types.ChecklistType) ([]types.GlobalChecklistTask, error) {
	var tasks []types.GlobalChecklistTask
	err := r.db.WithContext(ctx).
		Where("checklist_type = ?", checklistType).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *globalTaskRepo) ListAll(ctx context.Context) ([]types.GlobalChecklistTask, error) {
	var tasks []types.GlobalChecklistTask
	if err := r.db.WithContext(ctx).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *globalTaskRepo) ReplaceForType(ctx context.Context, checklistType types.ChecklistType, tasks []types.GlobalChecklistTask) error {
	now := time.Now().UTC()
	for i := range tasks {
		if tasks[i].ID == uuid.Nil {
			tasks[i].ID = uuid.New()
		}
		tasks[i].ChecklistType = checklistType
		tasks[i].CreatedAt = now
		tasks[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("checklist_type = ?", checklistType).
			Delete(&types.GlobalChecklistTask{}).Error; err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}
		return tx.CreateInBatches(tasks, WriteBatchSize).Error
	})
}

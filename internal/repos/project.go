package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// ErrNotFound is returned by repos when a row is absent; callers must not
// treat it as an I/O failure.
var ErrNotFound = errors.New("not found")

type ProjectRepo interface {
	Create(ctx context.Context, project *types.Project) (*types.Project, error)
	GetByName(ctx context.Context, name string) (*types.Project, error)
	List(ctx context.Context) ([]types.Project, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(ctx context.Context, project *types.Project) (*types.Project, error) {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepo) GetByName(ctx context.Context, name string) (*types.Project, error) {
	var project types.Project
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) List(ctx context.Context) ([]types.Project, error) {
	var projects []types.Project
	if err := r.db.WithContext(ctx).Order("name asc").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/repos"
	"github.com/civicworks/sitelore-backend/internal/types"
)

var ErrInvalidProject = errors.New("invalid project")

type ProjectService interface {
	Create(ctx context.Context, name, projectType string) (*types.Project, error)
	GetByName(ctx context.Context, name string) (*types.Project, error)
	List(ctx context.Context) ([]types.Project, error)
}

type projectService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
}

func NewProjectService(log *logger.Logger, projects repos.ProjectRepo) ProjectService {
	return &projectService{log: log.With("service", "ProjectService"), projects: projects}
}

func (s *projectService) Create(ctx context.Context, name, projectType string) (*types.Project, error) {
	name = strings.TrimSpace(name)
	projectType = strings.TrimSpace(projectType)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidProject)
	}
	if projectType == "" {
		return nil, fmt.Errorf("%w: empty project type", ErrInvalidProject)
	}
	p := &types.Project{
		ID:          uuid.New(),
		Name:        name,
		ProjectType: projectType,
	}
	created, err := s.projects.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.log.Info("Created project", "name", name, "project_type", projectType)
	return created, nil
}

func (s *projectService) GetByName(ctx context.Context, name string) (*types.Project, error) {
	p, err := s.projects.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, name)
		}
		return nil, err
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context) ([]types.Project, error) {
	return s.projects.List(ctx)
}

package app

import (
	"gorm.io/gorm"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/repos"
)

type Repos struct {
	Project       repos.ProjectRepo
	GlobalTask    repos.GlobalTaskRepo
	ChecklistItem repos.ChecklistItemRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:       repos.NewProjectRepo(db, log),
		GlobalTask:    repos.NewGlobalTaskRepo(db, log),
		ChecklistItem: repos.NewChecklistItemRepo(db, log),
	}
}

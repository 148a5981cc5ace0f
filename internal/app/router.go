package app

import (
	internalhttp "github.com/civicworks/sitelore-backend/internal/http"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, handlers Handlers) *internalhttp.Server {
	return internalhttp.NewServer(internalhttp.RouterConfig{
		Log:              log,
		HealthHandler:    handlers.Health,
		ProjectHandler:   handlers.Project,
		LessonHandler:    handlers.Lesson,
		ConflictHandler:  handlers.Conflict,
		ChecklistHandler: handlers.Checklist,
		KnowledgeHandler: handlers.Knowledge,
	})
}

package app

import (
	httpH "github.com/civicworks/sitelore-backend/internal/http/handlers"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Project   *httpH.ProjectHandler
	Lesson    *httpH.LessonHandler
	Conflict  *httpH.ConflictHandler
	Checklist *httpH.ChecklistHandler
	Knowledge *httpH.KnowledgeHandler
}

func wireHandlers(log *logger.Logger, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health:    httpH.NewHealthHandler(),
		Project:   httpH.NewProjectHandler(log, svcs.Project),
		Lesson:    httpH.NewLessonHandler(log, svcs.Project, svcs.LessonStore, svcs.Merge),
		Conflict:  httpH.NewConflictHandler(log, svcs.Resolution),
		Checklist: httpH.NewChecklistHandler(log, svcs.GlobalChecklist, svcs.ProjectChecklist, svcs.ChecklistSync),
	}
	if svcs.Knowledge != nil {
		h.Knowledge = httpH.NewKnowledgeHandler(log, svcs.Knowledge)
	}
	return h
}

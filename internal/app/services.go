package app

import (
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/services"
)

type Services struct {
	Project          services.ProjectService
	LessonStore      services.LessonStoreService
	Extraction       services.LessonExtractionService
	ConflictDetect   services.ConflictDetectionService
	Merge            services.LessonMergeService
	Resolution       services.ConflictResolutionService
	VectorSync       services.VectorSyncService
	GlobalChecklist  services.GlobalChecklistService
	ProjectChecklist services.ProjectChecklistService
	ChecklistSync    services.ChecklistSyncService
	Knowledge        services.KnowledgeQueryService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos) Services {
	log.Info("Wiring services...")

	store := services.NewLessonStoreService(log, clients.Bucket)
	extraction := services.NewLessonExtractionService(log, clients.OpenAI)
	detect := services.NewConflictDetectionService(log, clients.OpenAI)
	merge := services.NewLessonMergeService(log, store, extraction, detect, clients.SyncBus, cfg.DetectChunkSize)
	resolution := services.NewConflictResolutionService(log, store, clients.SyncBus)

	var vectorSync services.VectorSyncService
	var knowledge services.KnowledgeQueryService
	if clients.Vectors != nil {
		vectorSync = services.NewVectorSyncService(log, store, clients.OpenAI, clients.Vectors)
		knowledge = services.NewKnowledgeQueryService(log, store, clients.OpenAI, clients.Vectors, cfg.QueryTopK)
	}

	return Services{
		Project:          services.NewProjectService(log, reposet.Project),
		LessonStore:      store,
		Extraction:       extraction,
		ConflictDetect:   detect,
		Merge:            merge,
		Resolution:       resolution,
		VectorSync:       vectorSync,
		GlobalChecklist:  services.NewGlobalChecklistService(log, reposet.GlobalTask),
		ProjectChecklist: services.NewProjectChecklistService(log, reposet.ChecklistItem),
		ChecklistSync:    services.NewChecklistSyncService(log, reposet.Project, reposet.GlobalTask, reposet.ChecklistItem),
		Knowledge:        knowledge,
	}
}

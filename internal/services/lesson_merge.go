package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/civicworks/sitelore-backend/internal/clients/redis"
	"github.com/civicworks/sitelore-backend/internal/observability"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// DefaultDetectChunkSize bounds how many existing lessons go into one
// conflict-detection prompt.
const DefaultDetectChunkSize = 100

type MergeResult struct {
	Added     int `json:"added"`
	Conflicts int `json:"conflicts"`
}

// LessonMergeService merges newly extracted lessons into a collection.
// Merges are append-preferring: both sides of a conflict stay in the
// collection pending human resolution; only resolution removes lessons.
//
// The load-merge-write sequence has no optimistic-concurrency guard. Two
// concurrent merges against the same key can lose one side's additions;
// practical concurrency is one document upload at a time per project.
type LessonMergeService interface {
	Merge(ctx context.Context, newLessons []types.Lesson, scope types.LessonScope, key string, syncVectors bool) (MergeResult, error)
	// ProcessDocument runs the full upload pipeline: persist the document
	// text, extract lessons, then merge at project scope and project-type
	// scope as two independent merges with independent ledgers.
	ProcessDocument(ctx context.Context, content, filename, projectName, projectType string) error
}

type lessonMergeService struct {
	log       *logger.Logger
	store     LessonStoreService
	extractor LessonExtractionService
	detector  ConflictDetectionService
	bus       redis.SyncBus
	chunkSize int
}

func NewLessonMergeService(
	log *logger.Logger,
	store LessonStoreService,
	extractor LessonExtractionService,
	detector ConflictDetectionService,
	bus redis.SyncBus,
	chunkSize int,
) LessonMergeService {
	if chunkSize <= 0 {
		chunkSize = DefaultDetectChunkSize
	}
	return &lessonMergeService{
		log:       log.With("service", "LessonMergeService"),
		store:     store,
		extractor: extractor,
		detector:  detector,
		bus:       bus,
		chunkSize: chunkSize,
	}
}

func (s *lessonMergeService) Merge(ctx context.Context, newLessons []types.Lesson, scope types.LessonScope, key string, syncVectors bool) (MergeResult, error) {
	if len(newLessons) == 0 {
		return MergeResult{}, nil
	}

	existing, err := s.store.LoadCollection(ctx, scope, key)
	if err != nil {
		return MergeResult{}, err
	}

	// First merge into an empty collection needs no conflict detection.
	if len(existing) == 0 {
		sortLessonsByIDDesc(newLessons)
		if err := s.store.SaveCollection(ctx, scope, key, newLessons); err != nil {
			return MergeResult{}, err
		}
		s.enqueueSync(scope, key, syncVectors)
		observability.Current().ObserveMerge(len(newLessons), 0)
		return MergeResult{Added: len(newLessons)}, nil
	}

	var conflicts []types.Conflict
	for start := 0; start < len(existing); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(existing) {
			end = len(existing)
		}
		conflicts = append(conflicts, s.detector.Detect(ctx, newLessons, existing[start:end])...)
	}

	merged := append(existing, newLessons...)
	sortLessonsByIDDesc(merged)
	if err := s.store.SaveCollection(ctx, scope, key, merged); err != nil {
		return MergeResult{}, err
	}

	if len(conflicts) > 0 {
		ledger, err := s.store.LoadLedger(ctx, scope, key)
		if err != nil {
			return MergeResult{}, err
		}
		ledger = append(ledger, conflicts...)
		if err := s.store.SaveLedger(ctx, scope, key, ledger); err != nil {
			return MergeResult{}, err
		}
	}

	s.enqueueSync(scope, key, syncVectors)
	observability.Current().ObserveMerge(len(newLessons), len(conflicts))
	s.log.Info("Merged lessons",
		"scope", scope,
		"key", key,
		"added", len(newLessons),
		"conflicts", len(conflicts),
	)
	return MergeResult{Added: len(newLessons), Conflicts: len(conflicts)}, nil
}

// enqueueSync hands the project type to the vector-sync worker. The merge
// already committed; a failed enqueue is logged, never propagated.
func (s *lessonMergeService) enqueueSync(scope types.LessonScope, key string, syncVectors bool) {
	if !syncVectors || scope != types.ScopeProjectType || s.bus == nil {
		return
	}
	ev := redis.SyncEvent{Kind: redis.SyncUpsert, ProjectType: key}
	if err := s.bus.Publish(context.Background(), ev); err != nil {
		s.log.Error("Failed to enqueue vector sync", "project_type", key, "error", err)
	}
}

func (s *lessonMergeService) ProcessDocument(ctx context.Context, content, filename, projectName, projectType string) error {
	if err := s.store.SaveDocument(ctx, projectName, filename, content); err != nil {
		s.log.Warn("Failed to persist uploaded document", "filename", filename, "error", err)
	}

	lessons, err := s.extractor.ExtractLessons(ctx, content, filename)
	if err != nil {
		return fmt.Errorf("extract lessons from %s: %w", filename, err)
	}
	if len(lessons) == 0 {
		s.log.Info("Document produced no lessons", "filename", filename, "project", projectName)
		return nil
	}

	if _, err := s.Merge(ctx, lessons, types.ScopeProject, projectName, false); err != nil {
		return fmt.Errorf("merge project collection %s: %w", projectName, err)
	}

	typeLessons := make([]types.Lesson, len(lessons))
	copy(typeLessons, lessons)
	for i := range typeLessons {
		typeLessons[i].ProjectName = projectName
	}
	if _, err := s.Merge(ctx, typeLessons, types.ScopeProjectType, projectType, true); err != nil {
		return fmt.Errorf("merge project-type collection %s: %w", projectType, err)
	}
	return nil
}

// Display convention: newest first. IDs are opaque; descending string order
// matches how the collections are listed.
func sortLessonsByIDDesc(lessons []types.Lesson) {
	sort.Slice(lessons, func(i, j int) bool {
		return lessons[i].ID > lessons[j].ID
	})
}

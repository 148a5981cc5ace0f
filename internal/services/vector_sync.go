package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/civicworks/sitelore-backend/internal/clients/redis"
	"github.com/civicworks/sitelore-backend/internal/observability"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/platform/openai"
	"github.com/civicworks/sitelore-backend/internal/platform/pinecone"
	"github.com/civicworks/sitelore-backend/internal/types"
)

const embedBatchSize = 64

// VectorSyncService keeps the per-project-type vector namespace in step
// with the master lesson collection. It runs off the sync bus; callers of
// the merge path never wait on it.
type VectorSyncService interface {
	HandleEvent(ctx context.Context, ev redis.SyncEvent)
	ResyncProjectType(ctx context.Context, projectType string) error
}

type vectorSyncService struct {
	log     *logger.Logger
	store   LessonStoreService
	llm     openai.Client
	vectors pinecone.VectorStore
}

func NewVectorSyncService(log *logger.Logger, store LessonStoreService, llm openai.Client, vectors pinecone.VectorStore) VectorSyncService {
	return &vectorSyncService{
		log:     log.With("service", "VectorSyncService"),
		store:   store,
		llm:     llm,
		vectors: vectors,
	}
}

func (s *vectorSyncService) HandleEvent(ctx context.Context, ev redis.SyncEvent) {
	var err error
	switch ev.Kind {
	case redis.SyncUpsert:
		err = s.ResyncProjectType(ctx, ev.ProjectType)
	case redis.SyncDelete:
		err = s.deleteThenResync(ctx, ev.ProjectType, ev.LessonIDs)
	default:
		s.log.Warn("Unknown sync event kind", "kind", ev.Kind)
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.log.Error("Vector sync failed", "kind", ev.Kind, "project_type", ev.ProjectType, "error", err)
	}
	observability.Current().IncVectorEvent(string(ev.Kind), outcome)
}

func (s *vectorSyncService) deleteThenResync(ctx context.Context, projectType string, ids []string) error {
	if len(ids) > 0 {
		if err := s.vectors.DeleteIDs(ctx, projectType, ids); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
	}
	return s.ResyncProjectType(ctx, projectType)
}

// ResyncProjectType re-embeds and upserts every lesson in the type's master
// collection. Upserts overwrite by ID, so a resync after partial failure is
// safe to repeat.
func (s *vectorSyncService) ResyncProjectType(ctx context.Context, projectType string) error {
	lessons, err := s.store.LoadCollection(ctx, types.ScopeProjectType, projectType)
	if err != nil {
		return fmt.Errorf("load master collection %s: %w", projectType, err)
	}
	if len(lessons) == 0 {
		return nil
	}

	start := time.Now()
	for begin := 0; begin < len(lessons); begin += embedBatchSize {
		end := begin + embedBatchSize
		if end > len(lessons) {
			end = len(lessons)
		}
		batch := lessons[begin:end]

		inputs := make([]string, len(batch))
		for i, l := range batch {
			inputs[i] = lessonEmbedText(l)
		}
		embeddings, err := s.llm.Embed(ctx, inputs)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", begin, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embed batch at %d: got %d vectors for %d inputs", begin, len(embeddings), len(batch))
		}

		vecs := make([]pinecone.Vector, len(batch))
		for i, l := range batch {
			vecs[i] = pinecone.Vector{
				ID:     l.ID,
				Values: embeddings[i],
				Metadata: map[string]any{
					"title":        l.Title,
					"severity":     string(l.Severity),
					"project_name": l.ProjectName,
					"source":       l.SourceDocument,
				},
			}
		}
		if err := s.vectors.Upsert(ctx, projectType, vecs); err != nil {
			return fmt.Errorf("upsert batch at %d: %w", begin, err)
		}
	}

	s.log.Info("Resynced vector namespace",
		"project_type", projectType,
		"lessons", len(lessons),
		"duration", time.Since(start),
	)
	return nil
}

func lessonEmbedText(l types.Lesson) string {
	var b strings.Builder
	b.WriteString(l.Title)
	b.WriteString("\n")
	b.WriteString(l.Lesson)
	if l.Impact != "" {
		b.WriteString("\nImpact: ")
		b.WriteString(l.Impact)
	}
	if l.Recommendation != "" {
		b.WriteString("\nRecommendation: ")
		b.WriteString(l.Recommendation)
	}
	return b.String()
}

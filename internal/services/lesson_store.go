package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/civicworks/sitelore-backend/internal/platform/gcp"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// ErrNotFound is the service-level absence sentinel surfaced to handlers
// as a 404.
var ErrNotFound = errors.New("not found")

var (
	ErrInvalidDecision = errors.New("invalid decision")
	ErrAlreadyResolved = errors.New("already resolved")
)

// LessonStoreService persists lesson collections and conflict ledgers as
// JSON blobs. An absent key loads as an explicit empty slice; only real I/O
// failures return an error.
type LessonStoreService interface {
	LoadCollection(ctx context.Context, scope types.LessonScope, key string) ([]types.Lesson, error)
	SaveCollection(ctx context.Context, scope types.LessonScope, key string, lessons []types.Lesson) error
	LoadLedger(ctx context.Context, scope types.LessonScope, key string) ([]types.Conflict, error)
	SaveLedger(ctx context.Context, scope types.LessonScope, key string, conflicts []types.Conflict) error
	SaveDocument(ctx context.Context, projectName, filename, content string) error
}

type lessonStoreService struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewLessonStoreService(log *logger.Logger, bucket gcp.BucketService) LessonStoreService {
	return &lessonStoreService{
		log:    log.With("service", "LessonStoreService"),
		bucket: bucket,
	}
}

func scopePrefix(scope types.LessonScope) string {
	if scope == types.ScopeProjectType {
		return "project-types"
	}
	return "projects"
}

// CollectionKey returns the blob key for a collection, e.g.
// "projects/river-crossing/lessons.json".
func CollectionKey(scope types.LessonScope, key string) string {
	return fmt.Sprintf("%s/%s/lessons.json", scopePrefix(scope), strings.TrimSpace(key))
}

// LedgerKey parallels CollectionKey with a "-conflicts.json" suffix.
func LedgerKey(scope types.LessonScope, key string) string {
	return fmt.Sprintf("%s/%s/lessons-conflicts.json", scopePrefix(scope), strings.TrimSpace(key))
}

func (s *lessonStoreService) LoadCollection(ctx context.Context, scope types.LessonScope, key string) ([]types.Lesson, error) {
	raw, err := s.bucket.Download(ctx, gcp.BucketCategoryKnowledge, CollectionKey(scope, key))
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return []types.Lesson{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load collection %s/%s: %w", scope, key, err)
	}
	var lessons []types.Lesson
	if err := json.Unmarshal(raw, &lessons); err != nil {
		return nil, fmt.Errorf("decode collection %s/%s: %w", scope, key, err)
	}
	return lessons, nil
}

func (s *lessonStoreService) SaveCollection(ctx context.Context, scope types.LessonScope, key string, lessons []types.Lesson) error {
	if lessons == nil {
		lessons = []types.Lesson{}
	}
	raw, err := json.Marshal(lessons)
	if err != nil {
		return fmt.Errorf("encode collection %s/%s: %w", scope, key, err)
	}
	if err := s.bucket.Upload(ctx, gcp.BucketCategoryKnowledge, CollectionKey(scope, key), bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("save collection %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *lessonStoreService) LoadLedger(ctx context.Context, scope types.LessonScope, key string) ([]types.Conflict, error) {
	raw, err := s.bucket.Download(ctx, gcp.BucketCategoryKnowledge, LedgerKey(scope, key))
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return []types.Conflict{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger %s/%s: %w", scope, key, err)
	}
	var conflicts []types.Conflict
	if err := json.Unmarshal(raw, &conflicts); err != nil {
		return nil, fmt.Errorf("decode ledger %s/%s: %w", scope, key, err)
	}
	return conflicts, nil
}

func (s *lessonStoreService) SaveLedger(ctx context.Context, scope types.LessonScope, key string, conflicts []types.Conflict) error {
	if conflicts == nil {
		conflicts = []types.Conflict{}
	}
	raw, err := json.Marshal(conflicts)
	if err != nil {
		return fmt.Errorf("encode ledger %s/%s: %w", scope, key, err)
	}
	if err := s.bucket.Upload(ctx, gcp.BucketCategoryKnowledge, LedgerKey(scope, key), bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("save ledger %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *lessonStoreService) SaveDocument(ctx context.Context, projectName, filename, content string) error {
	key := fmt.Sprintf("documents/%s/%s", strings.TrimSpace(projectName), strings.TrimSpace(filename))
	if err := s.bucket.Upload(ctx, gcp.BucketCategoryDocument, key, strings.NewReader(content)); err != nil {
		return fmt.Errorf("save document %s: %w", key, err)
	}
	return nil
}

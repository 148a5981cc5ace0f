package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/civicworks/sitelore-backend/internal/clients/redis"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/platform/openai"
	"github.com/civicworks/sitelore-backend/internal/platform/pinecone"
	"github.com/civicworks/sitelore-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// fakeLessonStore keeps collections and ledgers in memory.
type fakeLessonStore struct {
	mu          sync.Mutex
	collections map[string][]types.Lesson
	ledgers     map[string][]types.Conflict
	documents   map[string]string
	saveErr     error
}

func newFakeLessonStore() *fakeLessonStore {
	return &fakeLessonStore{
		collections: map[string][]types.Lesson{},
		ledgers:     map[string][]types.Conflict{},
		documents:   map[string]string{},
	}
}

func storeKey(scope types.LessonScope, key string) string {
	return string(scope) + "/" + key
}

func (f *fakeLessonStore) LoadCollection(_ context.Context, scope types.LessonScope, key string) ([]types.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Lesson, len(f.collections[storeKey(scope, key)]))
	copy(out, f.collections[storeKey(scope, key)])
	return out, nil
}

func (f *fakeLessonStore) SaveCollection(_ context.Context, scope types.LessonScope, key string, lessons []types.Lesson) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]types.Lesson, len(lessons))
	copy(cp, lessons)
	f.collections[storeKey(scope, key)] = cp
	return nil
}

func (f *fakeLessonStore) LoadLedger(_ context.Context, scope types.LessonScope, key string) ([]types.Conflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Conflict, len(f.ledgers[storeKey(scope, key)]))
	copy(out, f.ledgers[storeKey(scope, key)])
	return out, nil
}

func (f *fakeLessonStore) SaveLedger(_ context.Context, scope types.LessonScope, key string, conflicts []types.Conflict) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]types.Conflict, len(conflicts))
	copy(cp, conflicts)
	f.ledgers[storeKey(scope, key)] = cp
	return nil
}

func (f *fakeLessonStore) SaveDocument(_ context.Context, projectName, filename, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[projectName+"/"+filename] = content
	return nil
}

// fakeOpenAI scripts the three gateway calls.
type fakeOpenAI struct {
	generateText  func(system, user string) (string, error)
	generateTool  func(system, user string, tool openai.ToolSchema) (map[string]any, error)
	embed         func(inputs []string) ([][]float32, error)
	textCalls     int
	toolCalls     int
	embedCalls    int
	lastToolInput string
}

func (f *fakeOpenAI) GenerateText(_ context.Context, system, user string) (string, error) {
	f.textCalls++
	if f.generateText == nil {
		return "", errors.New("GenerateText not scripted")
	}
	return f.generateText(system, user)
}

func (f *fakeOpenAI) GenerateToolCall(_ context.Context, system, user string, tool openai.ToolSchema) (map[string]any, error) {
	f.toolCalls++
	f.lastToolInput = user
	if f.generateTool == nil {
		return nil, errors.New("GenerateToolCall not scripted")
	}
	return f.generateTool(system, user, tool)
}

func (f *fakeOpenAI) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.embedCalls++
	if f.embed == nil {
		out := make([][]float32, len(inputs))
		for i := range out {
			out[i] = []float32{float32(i), 1}
		}
		return out, nil
	}
	return f.embed(inputs)
}

// fakeDetector returns a fixed set of conflicts per call.
type fakeDetector struct {
	conflicts []types.Conflict
	calls     int
	chunks    [][]types.Lesson
}

func (f *fakeDetector) Detect(_ context.Context, _, existingChunk []types.Lesson) []types.Conflict {
	f.calls++
	f.chunks = append(f.chunks, existingChunk)
	return f.conflicts
}

// fakeSyncBus records published events.
type fakeSyncBus struct {
	mu         sync.Mutex
	events     []redis.SyncEvent
	publishErr error
}

func (f *fakeSyncBus) Publish(_ context.Context, ev redis.SyncEvent) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSyncBus) StartForwarder(context.Context, func(redis.SyncEvent)) error { return nil }
func (f *fakeSyncBus) Close() error                                               { return nil }

func (f *fakeSyncBus) published() []redis.SyncEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]redis.SyncEvent, len(f.events))
	copy(out, f.events)
	return out
}

// fakeVectorStore records upserts and deletes and answers queries with
// scripted matches.
type fakeVectorStore struct {
	mu       sync.Mutex
	upserted map[string][]pinecone.Vector
	deleted  map[string][]string
	matches  []pinecone.VectorMatch
	queryErr error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		upserted: map[string][]pinecone.Vector{},
		deleted:  map[string][]string{},
	}
}

func (f *fakeVectorStore) Upsert(_ context.Context, namespace string, vectors []pinecone.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted[namespace] = append(f.upserted[namespace], vectors...)
	return nil
}

func (f *fakeVectorStore) QueryMatches(_ context.Context, _ string, _ []float32, _ int, _ map[string]any) ([]pinecone.VectorMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeVectorStore) DeleteIDs(_ context.Context, namespace string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[namespace] = append(f.deleted[namespace], ids...)
	return nil
}

func mkLesson(id, title string) types.Lesson {
	return types.Lesson{
		ID:       id,
		Title:    title,
		Lesson:   fmt.Sprintf("lesson body for %s", title),
		Severity: types.SeverityMedium,
	}
}

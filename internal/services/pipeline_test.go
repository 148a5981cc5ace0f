package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/civicworks/sitelore-backend/internal/clients/redis"
	"github.com/civicworks/sitelore-backend/internal/platform/openai"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// Full pipeline: two contradicting documents for the same project type, a
// flagged conflict, then a keep_existing resolution.
func TestContradictingUploadsThenResolution(t *testing.T) {
	store := newFakeLessonStore()
	bus := &fakeSyncBus{}

	extractions := []string{
		`[{"title": "Coordinate utility relocations early", "lesson": "Early coordination avoided conflicts.", "impact": "Saved two weeks.", "recommendation": "Start relocation talks at 30% design.", "severity": "High"}]`,
		`[{"title": "Coordinate utility relocations late", "lesson": "Late coordination reflected final design.", "impact": "Avoided redesign churn.", "recommendation": "Start relocation talks at 90% design.", "severity": "High"}]`,
	}
	extractCall := 0
	ai := &fakeOpenAI{
		generateText: func(_, _ string) (string, error) {
			out := extractions[extractCall%len(extractions)]
			extractCall++
			return out, nil
		},
		generateTool: func(_, user string, _ openai.ToolSchema) (map[string]any, error) {
			// The detector digest lists real IDs; echo back the one pair.
			newID := firstDigestID(user, "New lessons:")
			existingID := firstDigestID(user, "Existing lessons:")
			return map[string]any{
				"conflicts": []any{
					map[string]any{"new_lesson_id": newID, "existing_lesson_id": existingID, "reason": "contradicting guidance on relocation timing"},
				},
			}, nil
		},
	}
	extractor := NewLessonExtractionService(testLogger(), ai)
	detector := NewConflictDetectionService(testLogger(), ai)
	merge := NewLessonMergeService(testLogger(), store, extractor, detector, bus, 0)
	resolution := NewConflictResolutionService(testLogger(), store, bus)

	ctx := context.Background()
	if err := merge.ProcessDocument(ctx, "doc one", "early.txt", "elm-street", "roadway"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if err := merge.ProcessDocument(ctx, "doc two", "late.txt", "elm-street", "roadway"); err != nil {
		t.Fatalf("second upload: %v", err)
	}

	master, _ := store.LoadCollection(ctx, types.ScopeProjectType, "roadway")
	if len(master) != 2 {
		t.Fatalf("master collection = %d lessons, want both kept", len(master))
	}

	pending, err := resolution.ListPending(ctx, types.ScopeProjectType, "roadway")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	conflict := pending[0]
	if conflict.NewLesson.ID == conflict.ExistingLesson.ID {
		t.Fatal("conflict references the same lesson twice")
	}

	if err := resolution.Resolve(ctx, types.ScopeProjectType, "roadway", conflict.ID, types.DecisionKeepExisting); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	master, _ = store.LoadCollection(ctx, types.ScopeProjectType, "roadway")
	if len(master) != 1 {
		t.Fatalf("master after resolve = %d lessons, want 1", len(master))
	}
	if master[0].ID != conflict.ExistingLesson.ID {
		t.Fatalf("survivor = %s, want existing lesson %s", master[0].ID, conflict.ExistingLesson.ID)
	}

	ledger, _ := store.LoadLedger(ctx, types.ScopeProjectType, "roadway")
	if len(ledger) != 1 || ledger[0].Status != types.ConflictResolved || ledger[0].Decision != types.DecisionKeepExisting {
		t.Fatalf("ledger = %+v", ledger)
	}

	// Two type-scope merges upserted; the resolution removed a lesson and
	// enqueued a delete.
	events := bus.published()
	var upserts, deletes int
	for _, ev := range events {
		switch ev.Kind {
		case redis.SyncUpsert:
			upserts++
		case redis.SyncDelete:
			deletes++
		}
	}
	if upserts != 2 || deletes != 1 {
		t.Fatalf("events = %v", events)
	}
}

// firstDigestID pulls the first "id=..." token after the given section
// header in a detector prompt.
func firstDigestID(prompt, section string) string {
	idx := strings.Index(prompt, section)
	if idx < 0 {
		return ""
	}
	rest := prompt[idx:]
	idIdx := strings.Index(rest, "id=")
	if idIdx < 0 {
		return ""
	}
	rest = rest[idIdx+len("id="):]
	end := strings.IndexAny(rest, " \n")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

func TestJSONShapesOnTheWire(t *testing.T) {
	c := types.Conflict{
		ID:        "cf1",
		NewLesson: mkLesson("n1", "a"),
		Status:    types.ConflictPending,
	}
	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"new_lesson"`, `"existing_lesson"`, `"status":"pending"`} {
		if !strings.Contains(s, want) {
			t.Errorf("conflict json missing %s: %s", want, s)
		}
	}
	if strings.Contains(s, `"decision"`) {
		t.Errorf("unresolved conflict should omit decision: %s", s)
	}
}

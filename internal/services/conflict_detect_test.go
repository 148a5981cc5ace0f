package services

import (
	"context"
	"errors"
	"testing"

	"github.com/civicworks/sitelore-backend/internal/platform/openai"
	"github.com/civicworks/sitelore-backend/internal/types"
)

func TestDetectReportsConflicts(t *testing.T) {
	newLessons := []types.Lesson{mkLesson("n1", "new dewatering spec")}
	existing := []types.Lesson{mkLesson("e1", "old dewatering spec"), mkLesson("e2", "paving sequence")}

	ai := &fakeOpenAI{generateTool: func(_, _ string, _ openai.ToolSchema) (map[string]any, error) {
		return map[string]any{
			"conflicts": []any{
				map[string]any{"new_lesson_id": "n1", "existing_lesson_id": "e1", "reason": "supersedes the old pump sizing"},
			},
		}, nil
	}}
	svc := NewConflictDetectionService(testLogger(), ai)

	conflicts := svc.Detect(context.Background(), newLessons, existing)
	if len(conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(conflicts))
	}
	c := conflicts[0]
	if c.ID == "" {
		t.Error("conflict id not assigned")
	}
	if c.Status != types.ConflictPending {
		t.Errorf("status = %q, want pending", c.Status)
	}
	if c.NewLesson.ID != "n1" || c.ExistingLesson.ID != "e1" {
		t.Errorf("conflict pair = (%s, %s)", c.NewLesson.ID, c.ExistingLesson.ID)
	}
	if c.Reason != "supersedes the old pump sizing" {
		t.Errorf("reason = %q", c.Reason)
	}
	if c.CreatedAt == "" {
		t.Error("created_at not stamped")
	}
}

func TestDetectDropsHallucinatedIDs(t *testing.T) {
	newLessons := []types.Lesson{mkLesson("n1", "a")}
	existing := []types.Lesson{mkLesson("e1", "b")}

	ai := &fakeOpenAI{generateTool: func(_, _ string, _ openai.ToolSchema) (map[string]any, error) {
		return map[string]any{
			"conflicts": []any{
				map[string]any{"new_lesson_id": "n1", "existing_lesson_id": "ghost", "reason": "x"},
				map[string]any{"new_lesson_id": "phantom", "existing_lesson_id": "e1", "reason": "y"},
				map[string]any{"new_lesson_id": "n1", "existing_lesson_id": "e1", "reason": "real"},
			},
		}, nil
	}}
	svc := NewConflictDetectionService(testLogger(), ai)

	conflicts := svc.Detect(context.Background(), newLessons, existing)
	if len(conflicts) != 1 {
		t.Fatalf("got %d conflicts, want only the resolvable pair", len(conflicts))
	}
	if conflicts[0].Reason != "real" {
		t.Errorf("kept wrong pair: %q", conflicts[0].Reason)
	}
}

func TestDetectFailsOpen(t *testing.T) {
	ai := &fakeOpenAI{generateTool: func(_, _ string, _ openai.ToolSchema) (map[string]any, error) {
		return nil, errors.New("model unavailable")
	}}
	svc := NewConflictDetectionService(testLogger(), ai)

	conflicts := svc.Detect(context.Background(),
		[]types.Lesson{mkLesson("n1", "a")},
		[]types.Lesson{mkLesson("e1", "b")},
	)
	if len(conflicts) != 0 {
		t.Fatalf("got %d conflicts, want none on failure", len(conflicts))
	}
}

func TestDetectSkipsEmptySides(t *testing.T) {
	ai := &fakeOpenAI{}
	svc := NewConflictDetectionService(testLogger(), ai)

	if got := svc.Detect(context.Background(), nil, []types.Lesson{mkLesson("e1", "b")}); len(got) != 0 {
		t.Fatalf("empty new side: got %d conflicts", len(got))
	}
	if got := svc.Detect(context.Background(), []types.Lesson{mkLesson("n1", "a")}, nil); len(got) != 0 {
		t.Fatalf("empty existing side: got %d conflicts", len(got))
	}
	if ai.toolCalls != 0 {
		t.Fatalf("model called %d times for empty input", ai.toolCalls)
	}
}

func TestDecodeReportedConflictsMalformed(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
	}{
		{"missing key", map[string]any{}},
		{"wrong shape", map[string]any{"conflicts": "not a list"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeReportedConflicts(tc.args); len(got) != 0 {
				t.Fatalf("got %v, want none", got)
			}
		})
	}
}

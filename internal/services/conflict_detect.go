package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/platform/openai"
	"github.com/civicworks/sitelore-backend/internal/types"
)

// ConflictDetectionService flags overlaps between new and existing lessons.
// The same-topic / contradiction / obsolescence judgment is delegated
// entirely to the model; detection failures fail open with an empty list so
// a merge is never blocked.
type ConflictDetectionService interface {
	Detect(ctx context.Context, newLessons, existingChunk []types.Lesson) []types.Conflict
}

type conflictDetectionService struct {
	log *logger.Logger
	ai  openai.Client
}

func NewConflictDetectionService(log *logger.Logger, ai openai.Client) ConflictDetectionService {
	return &conflictDetectionService{
		log: log.With("service", "ConflictDetectionService"),
		ai:  ai,
	}
}

const detectSystemPrompt = `You compare lessons learned from public-works engineering projects and report conflicts. Two lessons conflict when the new lesson covers the same topic with updated or better information, contradicts the existing lesson, or makes it obsolete. Unrelated lessons are not conflicts.`

var reportConflictsTool = openai.ToolSchema{
	Name:        "report_conflicts",
	Description: "Report every pair of new and existing lessons that conflict.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"conflicts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"new_lesson_id":      map[string]any{"type": "string"},
						"existing_lesson_id": map[string]any{"type": "string"},
						"reason":             map[string]any{"type": "string"},
					},
					"required":             []string{"new_lesson_id", "existing_lesson_id", "reason"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"conflicts"},
		"additionalProperties": false,
	},
}

type reportedConflict struct {
	NewLessonID      string `json:"new_lesson_id"`
	ExistingLessonID string `json:"existing_lesson_id"`
	Reason           string `json:"reason"`
}

func (s *conflictDetectionService) Detect(ctx context.Context, newLessons, existingChunk []types.Lesson) []types.Conflict {
	if len(newLessons) == 0 || len(existingChunk) == 0 {
		return nil
	}

	user := fmt.Sprintf("New lessons:\n%s\n\nExisting lessons:\n%s\n\nCall report_conflicts with every conflicting pair. If nothing conflicts, call it with an empty array.",
		lessonDigest(newLessons), lessonDigest(existingChunk))

	args, err := s.ai.GenerateToolCall(ctx, detectSystemPrompt, user, reportConflictsTool)
	if err != nil {
		s.log.Warn("Conflict detection call failed; continuing without conflicts", "error", err)
		return nil
	}

	reported := decodeReportedConflicts(args)
	if len(reported) == 0 {
		return nil
	}

	newByID := lessonIndex(newLessons)
	existingByID := lessonIndex(existingChunk)

	now := time.Now().UTC().Format(time.RFC3339)
	out := make([]types.Conflict, 0, len(reported))
	for _, rc := range reported {
		newLesson, okNew := newByID[rc.NewLessonID]
		existingLesson, okExisting := existingByID[rc.ExistingLessonID]
		if !okNew || !okExisting {
			// The model invented an ID it was never shown; drop the pair.
			s.log.Warn("Discarding conflict with unresolvable lesson id",
				"new_lesson_id", rc.NewLessonID,
				"existing_lesson_id", rc.ExistingLessonID,
			)
			continue
		}
		out = append(out, types.Conflict{
			ID:             uuid.NewString(),
			NewLesson:      newLesson,
			ExistingLesson: existingLesson,
			Reason:         strings.TrimSpace(rc.Reason),
			Status:         types.ConflictPending,
			CreatedAt:      now,
		})
	}
	return out
}

func decodeReportedConflicts(args map[string]any) []reportedConflict {
	rawList, ok := args["conflicts"]
	if !ok {
		return nil
	}
	raw, err := json.Marshal(rawList)
	if err != nil {
		return nil
	}
	var out []reportedConflict
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func lessonIndex(lessons []types.Lesson) map[string]types.Lesson {
	out := make(map[string]types.Lesson, len(lessons))
	for _, l := range lessons {
		out[l.ID] = l
	}
	return out
}

func lessonDigest(lessons []types.Lesson) string {
	var b strings.Builder
	for _, l := range lessons {
		fmt.Fprintf(&b, "- id=%s severity=%s title=%q lesson=%q recommendation=%q\n",
			l.ID, l.Severity, l.Title, l.Lesson, l.Recommendation)
	}
	return b.String()
}

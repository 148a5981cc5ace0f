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

// LessonExtractionService turns raw document text into normalized lesson
// records. A response with no parseable array means "no lessons found" and
// yields an empty slice; a gateway failure after retries is an error.
type LessonExtractionService interface {
	ExtractLessons(ctx context.Context, content, sourceDocument string) ([]types.Lesson, error)
}

type lessonExtractionService struct {
	log *logger.Logger
	ai  openai.Client
}

func NewLessonExtractionService(log *logger.Logger, ai openai.Client) LessonExtractionService {
	return &lessonExtractionService{
		log: log.With("service", "LessonExtractionService"),
		ai:  ai,
	}
}

const extractionSystemPrompt = `You are a public-works engineering knowledge analyst. You extract lessons learned from project documents such as design reviews, inspection reports, change orders and closeout memos.`

func extractionUserPrompt(content string) string {
	return fmt.Sprintf(`Extract 3-5 lessons learned from the document below.

Respond with a JSON array only. Each element must have exactly these fields:
- "title": short headline for the lesson
- "lesson": what happened and what was learned
- "impact": effect on cost, schedule, quality or safety
- "recommendation": what future projects should do
- "severity": one of "Low", "Medium", "High"

Document:
%s`, content)
}

type extractedLesson struct {
	Title          string `json:"title"`
	Lesson         string `json:"lesson"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
	Severity       string `json:"severity"`
}

func (s *lessonExtractionService) ExtractLessons(ctx context.Context, content, sourceDocument string) ([]types.Lesson, error) {
	text, err := s.ai.GenerateText(ctx, extractionSystemPrompt, extractionUserPrompt(content))
	if err != nil {
		return nil, fmt.Errorf("lesson extraction call: %w", err)
	}

	extracted := parseLessonArray(text)
	if len(extracted) == 0 {
		s.log.Warn("No lessons parsed from model output", "source_document", sourceDocument)
		return []types.Lesson{}, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	lessons := make([]types.Lesson, 0, len(extracted))
	for _, e := range extracted {
		lessons = append(lessons, types.Lesson{
			ID:             uuid.NewString(),
			Title:          strings.TrimSpace(e.Title),
			Lesson:         strings.TrimSpace(e.Lesson),
			Impact:         strings.TrimSpace(e.Impact),
			Recommendation: strings.TrimSpace(e.Recommendation),
			Severity:       normalizeSeverity(e.Severity),
			SourceDocument: sourceDocument,
			CreatedAt:      now,
		})
	}
	return lessons, nil
}

// parseLessonArray decodes the JSON array enclosed by the first "[" and the
// last "]" in the model output. The lenient span scan tolerates prose around
// the array; anything that still fails to decode is treated as no findings.
func parseLessonArray(text string) []extractedLesson {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}
	var out []extractedLesson
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil
	}
	return out
}

func normalizeSeverity(s string) types.LessonSeverity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return types.SeverityHigh
	case "medium":
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

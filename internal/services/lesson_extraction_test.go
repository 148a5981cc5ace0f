package services

import (
	"context"
	"errors"
	"testing"

	"github.com/civicworks/sitelore-backend/internal/types"
)

func TestExtractLessons(t *testing.T) {
	modelOutput := `Here are the findings:
[
  {"title": "Utility locates were stale", "lesson": "Potholing found a waterline 2 ft off the record drawings.", "impact": "Three week delay on storm drain install.", "recommendation": "Re-verify locates older than 90 days.", "severity": "High"},
  {"title": "Early SWPPP walkdown", "lesson": "Joint walkdown with the inspector avoided rework.", "impact": "None.", "recommendation": "Schedule the walkdown before clearing.", "severity": "low"}
]
Let me know if you need more.`

	ai := &fakeOpenAI{generateText: func(_, _ string) (string, error) { return modelOutput, nil }}
	svc := NewLessonExtractionService(testLogger(), ai)

	lessons, err := svc.ExtractLessons(context.Background(), "doc body", "closeout.txt")
	if err != nil {
		t.Fatalf("ExtractLessons: %v", err)
	}
	if len(lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(lessons))
	}
	first := lessons[0]
	if first.ID == "" {
		t.Error("lesson id not assigned")
	}
	if first.SourceDocument != "closeout.txt" {
		t.Errorf("source document = %q", first.SourceDocument)
	}
	if first.CreatedAt == "" {
		t.Error("created_at not stamped")
	}
	if first.Severity != types.SeverityHigh {
		t.Errorf("severity = %q, want High", first.Severity)
	}
	if lessons[1].Severity != types.SeverityLow {
		t.Errorf("lowercase severity not normalized: %q", lessons[1].Severity)
	}
}

func TestExtractLessonsNoArrayIsEmpty(t *testing.T) {
	cases := []struct {
		name   string
		output string
	}{
		{"prose only", "The document contains no lessons learned."},
		{"unbalanced bracket", "[ this never closes"},
		{"invalid json", "[{not json}]"},
		{"empty array", "[]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ai := &fakeOpenAI{generateText: func(_, _ string) (string, error) { return tc.output, nil }}
			svc := NewLessonExtractionService(testLogger(), ai)

			lessons, err := svc.ExtractLessons(context.Background(), "doc", "a.txt")
			if err != nil {
				t.Fatalf("ExtractLessons: %v", err)
			}
			if lessons == nil || len(lessons) != 0 {
				t.Fatalf("got %v, want explicit empty slice", lessons)
			}
		})
	}
}

func TestExtractLessonsGatewayError(t *testing.T) {
	ai := &fakeOpenAI{generateText: func(_, _ string) (string, error) { return "", errors.New("rate limited") }}
	svc := NewLessonExtractionService(testLogger(), ai)

	if _, err := svc.ExtractLessons(context.Background(), "doc", "a.txt"); err == nil {
		t.Fatal("expected error when the gateway fails")
	}
}

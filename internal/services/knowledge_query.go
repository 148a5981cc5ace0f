package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
	"github.com/civicworks/sitelore-backend/internal/platform/openai"
	"github.com/civicworks/sitelore-backend/internal/platform/pinecone"
	"github.com/civicworks/sitelore-backend/internal/types"
)

const defaultQueryTopK = 8

var ErrEmptyQuestion = errors.New("empty question")

type KnowledgeAnswer struct {
	Answer  string         `json:"answer"`
	Sources []types.Lesson `json:"sources"`
}

// KnowledgeQueryService answers natural-language questions against a
// project type's master collection: embed the question, pull the nearest
// lessons from the vector namespace, then ask the model to answer from
// those lessons only.
type KnowledgeQueryService interface {
	Ask(ctx context.Context, projectType, question string) (KnowledgeAnswer, error)
}

type knowledgeQueryService struct {
	log     *logger.Logger
	store   LessonStoreService
	llm     openai.Client
	vectors pinecone.VectorStore
	topK    int
}

func NewKnowledgeQueryService(log *logger.Logger, store LessonStoreService, llm openai.Client, vectors pinecone.VectorStore, topK int) KnowledgeQueryService {
	if topK <= 0 {
		topK = defaultQueryTopK
	}
	return &knowledgeQueryService{
		log:     log.With("service", "KnowledgeQueryService"),
		store:   store,
		llm:     llm,
		vectors: vectors,
		topK:    topK,
	}
}

const answerSystemPrompt = `You are an assistant for a public-works engineering team.
Answer the question using ONLY the numbered lessons provided. Cite lessons
by their number, like [2]. If the lessons do not contain the answer, say so
plainly instead of guessing.`

func (s *knowledgeQueryService) Ask(ctx context.Context, projectType, question string) (KnowledgeAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return KnowledgeAnswer{}, ErrEmptyQuestion
	}

	embeddings, err := s.llm.Embed(ctx, []string{question})
	if err != nil {
		return KnowledgeAnswer{}, fmt.Errorf("embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return KnowledgeAnswer{}, fmt.Errorf("embed question: empty response")
	}

	matches, err := s.vectors.QueryMatches(ctx, projectType, embeddings[0], s.topK, nil)
	if err != nil {
		return KnowledgeAnswer{}, fmt.Errorf("query vectors: %w", err)
	}
	if len(matches) == 0 {
		return KnowledgeAnswer{Answer: "No recorded lessons are relevant to this question.", Sources: []types.Lesson{}}, nil
	}

	lessons, err := s.store.LoadCollection(ctx, types.ScopeProjectType, projectType)
	if err != nil {
		return KnowledgeAnswer{}, fmt.Errorf("load master collection: %w", err)
	}
	byID := make(map[string]types.Lesson, len(lessons))
	for _, l := range lessons {
		byID[l.ID] = l
	}

	// Matches can lead the collection after a resolution removed lessons
	// but before the namespace resynced; drop those IDs.
	sources := make([]types.Lesson, 0, len(matches))
	for _, m := range matches {
		if l, ok := byID[m.ID]; ok {
			sources = append(sources, l)
		}
	}
	if len(sources) == 0 {
		return KnowledgeAnswer{Answer: "No recorded lessons are relevant to this question.", Sources: []types.Lesson{}}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nLessons:\n", question)
	for i, l := range sources {
		fmt.Fprintf(&b, "[%d] %s\n%s\n", i+1, l.Title, l.Lesson)
		if l.Recommendation != "" {
			fmt.Fprintf(&b, "Recommendation: %s\n", l.Recommendation)
		}
		if l.ProjectName != "" {
			fmt.Fprintf(&b, "Project: %s\n", l.ProjectName)
		}
		b.WriteString("\n")
	}

	answer, err := s.llm.GenerateText(ctx, answerSystemPrompt, b.String())
	if err != nil {
		return KnowledgeAnswer{}, fmt.Errorf("generate answer: %w", err)
	}
	return KnowledgeAnswer{Answer: strings.TrimSpace(answer), Sources: sources}, nil
}

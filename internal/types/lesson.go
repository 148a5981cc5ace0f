package types

// LessonScope selects which collection a merge or read targets.
type LessonScope string

const (
	// ScopeProject collections are keyed by project name and are not
	// synced to the vector index.
	ScopeProject LessonScope = "project"
	// ScopeProjectType collections ("master" lists) are keyed by project
	// type and are synced to the vector index after merge.
	ScopeProjectType LessonScope = "project-type"
)

func (s LessonScope) Valid() bool {
	return s == ScopeProject || s == ScopeProjectType
}

type LessonSeverity string

const (
	SeverityLow    LessonSeverity = "Low"
	SeverityMedium LessonSeverity = "Medium"
	SeverityHigh   LessonSeverity = "High"
)

// Lesson is one extracted insight. Lessons are immutable after extraction:
// superseding is modeled as a pending Conflict, not an in-place edit. Only
// conflict resolution may remove a lesson from its collection.
type Lesson struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Lesson         string         `json:"lesson"`
	Impact         string         `json:"impact"`
	Recommendation string         `json:"recommendation"`
	Severity       LessonSeverity `json:"severity"`
	SourceDocument string         `json:"source_document"`
	CreatedAt      string         `json:"created_at"`
	// ProjectName is set only on project-type-scoped copies so the master
	// list records which project contributed the lesson.
	ProjectName string `json:"project_name,omitempty"`
}

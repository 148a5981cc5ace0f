package types

type ConflictStatus string

const (
	ConflictPending  ConflictStatus = "pending"
	ConflictResolved ConflictStatus = "resolved"
)

type ConflictDecision string

const (
	DecisionKeepNew      ConflictDecision = "keep_new"
	DecisionKeepExisting ConflictDecision = "keep_existing"
	DecisionKeepBoth     ConflictDecision = "keep_both"
	DecisionDeleteBoth   ConflictDecision = "delete_both"
)

func (d ConflictDecision) Valid() bool {
	switch d {
	case DecisionKeepNew, DecisionKeepExisting, DecisionKeepBoth, DecisionDeleteBoth:
		return true
	default:
		return false
	}
}

// Conflict is a flagged overlap between one new lesson and one existing
// lesson within a single collection. Both lessons are embedded as full
// copies taken at detection time so the record stays inspectable even if
// either lesson is later deleted. Status transitions exactly once,
// pending -> resolved.
type Conflict struct {
	ID             string           `json:"id"`
	NewLesson      Lesson           `json:"new_lesson"`
	ExistingLesson Lesson           `json:"existing_lesson"`
	Reason         string           `json:"reason"`
	Status         ConflictStatus   `json:"status"`
	Decision       ConflictDecision `json:"decision,omitempty"`
	CreatedAt      string           `json:"created_at"`
	ResolvedAt     string           `json:"resolved_at,omitempty"`
}
